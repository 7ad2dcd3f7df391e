package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kumolabai/upctl/pkg/up"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// API is the subset of the Up client the tools call. *up.Client satisfies it.
type API interface {
	Ping(ctx context.Context) (*up.PingResponse, error)
	ListAccounts(ctx context.Context, filter up.AccountFilter) (*up.AccountList, error)
	GetAccount(ctx context.Context, accountID string) (*up.AccountDocument, error)
	ListTransactions(ctx context.Context, filter up.TransactionFilter) (*up.TransactionList, error)
	GetTransaction(ctx context.Context, transactionID string) (*up.TransactionDocument, error)
	ListCategories(ctx context.Context, filter up.CategoryFilter) (*up.CategoryList, error)
	GetCategory(ctx context.Context, categoryID string) (*up.CategoryDocument, error)
}

// EnrichedTool is an advertised tool plus the Up endpoint behind it.
type EnrichedTool struct {
	*mcp.Tool
	Endpoint string
	invoke   func(ctx context.Context, api API, args Arguments) (interface{}, error)
}

// Catalog returns the fixed tool menu in presentation order.
func Catalog() []*EnrichedTool {
	return []*EnrichedTool{
		{
			Tool: &mcp.Tool{
				Name:        "up_ping",
				Description: "Test the Up API connection and verify authentication is working",
				InputSchema: objectSchema(nil),
			},
			Endpoint: "GET /util/ping",
			invoke: func(ctx context.Context, api API, _ Arguments) (interface{}, error) {
				return api.Ping(ctx)
			},
		},
		{
			Tool: &mcp.Tool{
				Name:        "up_list_accounts",
				Description: "List all accounts for the authenticated user. Returns account balances, types (SAVER, TRANSACTIONAL, HOME_LOAN), and ownership information.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"accountType":   enumProperty("Filter by account type", up.AccountTypeSaver, up.AccountTypeTransactional, up.AccountTypeHomeLoan),
					"ownershipType": enumProperty("Filter by ownership type", up.OwnershipTypeIndividual, up.OwnershipTypeJoint),
				}),
			},
			Endpoint: "GET /accounts",
			invoke:   listAccounts,
		},
		{
			Tool: &mcp.Tool{
				Name:        "up_get_account",
				Description: "Get details for a specific account by ID, including current balance and account information.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"accountId": stringProperty("The unique identifier for the account"),
				}, "accountId"),
			},
			Endpoint: "GET /accounts/{id}",
			invoke: func(ctx context.Context, api API, args Arguments) (interface{}, error) {
				id, err := args.RequiredString("accountId")
				if err != nil {
					return nil, err
				}
				return api.GetAccount(ctx, id)
			},
		},
		{
			Tool: &mcp.Tool{
				Name:        "up_list_transactions",
				Description: "List transactions across all accounts or for a specific account. Supports filtering by status, date range, category, and tags. Returns paginated results ordered newest first.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"accountId": stringProperty("Optional: Filter to transactions for a specific account"),
					"status":    enumProperty("Filter by transaction status (pending or settled)", up.TransactionStatusHeld, up.TransactionStatusSettled),
					"since":     stringProperty("Start date-time in RFC 3339 format (e.g., 2024-01-01T00:00:00+10:00)"),
					"until":     stringProperty("End date-time in RFC 3339 format (e.g., 2024-12-31T23:59:59+10:00)"),
					"category":  stringProperty("Filter by category ID (e.g., 'restaurants-and-cafes', 'good-life')"),
					"tag":       stringProperty("Filter by transaction tag"),
					"pageSize": {
						Type:        "number",
						Description: "Number of records to return (default: 30, max: 100)",
					},
				}),
			},
			Endpoint: "GET /transactions, GET /accounts/{id}/transactions",
			invoke:   listTransactions,
		},
		{
			Tool: &mcp.Tool{
				Name:        "up_get_transaction",
				Description: "Get detailed information about a specific transaction by ID, including amount, description, category, and related account.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"transactionId": stringProperty("The unique identifier for the transaction"),
				}, "transactionId"),
			},
			Endpoint: "GET /transactions/{id}",
			invoke: func(ctx context.Context, api API, args Arguments) (interface{}, error) {
				id, err := args.RequiredString("transactionId")
				if err != nil {
					return nil, err
				}
				return api.GetTransaction(ctx, id)
			},
		},
		{
			Tool: &mcp.Tool{
				Name:        "up_list_categories",
				Description: "List all spending categories in Up. Categories have a parent-child relationship. Use this to understand category IDs for filtering transactions.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"parentId": stringProperty("Optional: Filter to only show children of a specific parent category"),
				}),
			},
			Endpoint: "GET /categories",
			invoke: func(ctx context.Context, api API, args Arguments) (interface{}, error) {
				parentID, err := args.String("parentId")
				if err != nil {
					return nil, err
				}
				return api.ListCategories(ctx, up.CategoryFilter{ParentID: parentID})
			},
		},
		{
			Tool: &mcp.Tool{
				Name:        "up_get_category",
				Description: "Get details about a specific category by ID, including its name and parent/child relationships.",
				InputSchema: objectSchema(map[string]*jsonschema.Schema{
					"categoryId": stringProperty("The unique identifier for the category (e.g., 'restaurants-and-cafes')"),
				}, "categoryId"),
			},
			Endpoint: "GET /categories/{id}",
			invoke: func(ctx context.Context, api API, args Arguments) (interface{}, error) {
				id, err := args.RequiredString("categoryId")
				if err != nil {
					return nil, err
				}
				return api.GetCategory(ctx, id)
			},
		},
	}
}

func listAccounts(ctx context.Context, api API, args Arguments) (interface{}, error) {
	accountType, err := args.String("accountType")
	if err != nil {
		return nil, err
	}
	ownershipType, err := args.String("ownershipType")
	if err != nil {
		return nil, err
	}

	return api.ListAccounts(ctx, up.AccountFilter{
		AccountType:   up.AccountType(accountType),
		OwnershipType: up.OwnershipType(ownershipType),
	})
}

func listTransactions(ctx context.Context, api API, args Arguments) (interface{}, error) {
	var (
		filter up.TransactionFilter
		status string
		err    error
	)

	fields := []struct {
		name   string
		target *string
	}{
		{"accountId", &filter.AccountID},
		{"status", &status},
		{"since", &filter.Since},
		{"until", &filter.Until},
		{"category", &filter.Category},
		{"tag", &filter.Tag},
	}
	for _, f := range fields {
		if *f.target, err = args.String(f.name); err != nil {
			return nil, err
		}
	}
	filter.Status = up.TransactionStatus(status)

	if filter.PageSize, err = args.Int("pageSize"); err != nil {
		return nil, err
	}

	return api.ListTransactions(ctx, filter)
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func stringProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func enumProperty[T ~string](description string, values ...T) *jsonschema.Schema {
	schema := stringProperty(description)
	for _, v := range values {
		schema.Enum = append(schema.Enum, string(v))
	}
	return schema
}
