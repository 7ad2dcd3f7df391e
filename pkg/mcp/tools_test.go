package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kumolabai/upctl/pkg/up"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records the arguments each method was called with.
type fakeAPI struct {
	accountFilter     up.AccountFilter
	transactionFilter up.TransactionFilter
	categoryFilter    up.CategoryFilter
	id                string
	err               error
}

func (f *fakeAPI) Ping(ctx context.Context) (*up.PingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := &up.PingResponse{}
	resp.Meta.ID = "ping-1"
	resp.Meta.StatusEmoji = "⚡️"
	return resp, nil
}

func (f *fakeAPI) ListAccounts(ctx context.Context, filter up.AccountFilter) (*up.AccountList, error) {
	f.accountFilter = filter
	return &up.AccountList{Data: []up.AccountResource{}}, f.err
}

func (f *fakeAPI) GetAccount(ctx context.Context, accountID string) (*up.AccountDocument, error) {
	f.id = accountID
	return &up.AccountDocument{}, f.err
}

func (f *fakeAPI) ListTransactions(ctx context.Context, filter up.TransactionFilter) (*up.TransactionList, error) {
	f.transactionFilter = filter
	return &up.TransactionList{Data: []up.TransactionResource{}}, f.err
}

func (f *fakeAPI) GetTransaction(ctx context.Context, transactionID string) (*up.TransactionDocument, error) {
	f.id = transactionID
	return &up.TransactionDocument{}, f.err
}

func (f *fakeAPI) ListCategories(ctx context.Context, filter up.CategoryFilter) (*up.CategoryList, error) {
	f.categoryFilter = filter
	return &up.CategoryList{Data: []up.CategoryResource{}}, f.err
}

func (f *fakeAPI) GetCategory(ctx context.Context, categoryID string) (*up.CategoryDocument, error) {
	f.id = categoryID
	return &up.CategoryDocument{}, f.err
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestCatalog(t *testing.T) {
	tools := Catalog()

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotEmpty(t, tool.Endpoint, tool.Name)
		require.NotNil(t, tool.InputSchema, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
	}

	assert.Equal(t, []string{
		"up_ping",
		"up_list_accounts",
		"up_get_account",
		"up_list_transactions",
		"up_get_transaction",
		"up_list_categories",
		"up_get_category",
	}, names)

	byName := map[string]*EnrichedTool{}
	for _, tool := range tools {
		byName[tool.Name] = tool
	}

	assert.Equal(t, []string{"accountId"}, byName["up_get_account"].InputSchema.Required)
	assert.Equal(t, []string{"transactionId"}, byName["up_get_transaction"].InputSchema.Required)
	assert.Equal(t, []string{"categoryId"}, byName["up_get_category"].InputSchema.Required)
	assert.Empty(t, byName["up_list_transactions"].InputSchema.Required)

	accounts := byName["up_list_accounts"].InputSchema.Properties
	assert.Equal(t, []interface{}{"SAVER", "TRANSACTIONAL", "HOME_LOAN"}, accounts["accountType"].Enum)
	assert.Equal(t, []interface{}{"INDIVIDUAL", "JOINT"}, accounts["ownershipType"].Enum)

	transactions := byName["up_list_transactions"].InputSchema.Properties
	assert.Equal(t, []interface{}{"HELD", "SETTLED"}, transactions["status"].Enum)
	assert.Equal(t, "number", transactions["pageSize"].Type)
	assert.Len(t, transactions, 7)
}

func TestCallUnknownTool(t *testing.T) {
	d := NewDispatcher(&fakeAPI{}, nil)

	result := d.Call(context.Background(), "up_delete_account", nil)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: Unknown tool: up_delete_account", resultText(t, result))
}

func TestCallPingEnvelope(t *testing.T) {
	d := NewDispatcher(&fakeAPI{}, nil)

	result := d.Call(context.Background(), "up_ping", Arguments{})
	assert.False(t, result.IsError)
	assert.Equal(t, "{\n  \"meta\": {\n    \"id\": \"ping-1\",\n    \"statusEmoji\": \"⚡️\"\n  }\n}", resultText(t, result))
}

func TestCallCoercesArguments(t *testing.T) {
	api := &fakeAPI{}
	d := NewDispatcher(api, nil)
	ctx := context.Background()

	result := d.Call(ctx, "up_list_accounts", Arguments{"accountType": "SAVER", "ownershipType": ""})
	require.False(t, result.IsError, resultText(t, result))
	assert.Equal(t, up.AccountFilter{AccountType: up.AccountTypeSaver}, api.accountFilter)

	result = d.Call(ctx, "up_list_transactions", Arguments{
		"accountId": "acc-1",
		"status":    "SETTLED",
		"since":     "2024-01-01T00:00:00+10:00",
		"until":     "2024-12-31T23:59:59+10:00",
		"category":  "good-life",
		"tag":       "Holiday",
		"pageSize":  50.0,
	})
	require.False(t, result.IsError, resultText(t, result))
	assert.Equal(t, up.TransactionFilter{
		AccountID: "acc-1",
		Status:    up.TransactionStatusSettled,
		Since:     "2024-01-01T00:00:00+10:00",
		Until:     "2024-12-31T23:59:59+10:00",
		Category:  "good-life",
		Tag:       "Holiday",
		PageSize:  50,
	}, api.transactionFilter)

	result = d.Call(ctx, "up_list_categories", Arguments{"parentId": "good-life"})
	require.False(t, result.IsError, resultText(t, result))
	assert.Equal(t, up.CategoryFilter{ParentID: "good-life"}, api.categoryFilter)

	for tool, arg := range map[string]string{
		"up_get_account":     "accountId",
		"up_get_transaction": "transactionId",
		"up_get_category":    "categoryId",
	} {
		result = d.Call(ctx, tool, Arguments{arg: "id-for-" + tool})
		require.False(t, result.IsError, resultText(t, result))
		assert.Equal(t, "id-for-"+tool, api.id)
	}
}

func TestCallNilArguments(t *testing.T) {
	api := &fakeAPI{}
	d := NewDispatcher(api, nil)

	result := d.Call(context.Background(), "up_list_transactions", nil)
	require.False(t, result.IsError)
	assert.Equal(t, up.TransactionFilter{}, api.transactionFilter)
}

func TestCallArgumentErrors(t *testing.T) {
	d := NewDispatcher(&fakeAPI{}, nil)

	tests := []struct {
		tool     string
		args     Arguments
		expected string
	}{
		{
			tool:     "up_get_account",
			args:     Arguments{},
			expected: "Error: missing required argument: accountId",
		},
		{
			tool:     "up_get_transaction",
			args:     Arguments{"transactionId": ""},
			expected: "Error: missing required argument: transactionId",
		},
		{
			tool:     "up_get_category",
			args:     Arguments{"categoryId": 12.0},
			expected: "Error: invalid argument categoryId: expected string, got 12",
		},
		{
			tool:     "up_list_transactions",
			args:     Arguments{"status": true},
			expected: "Error: invalid argument status: expected string, got boolean",
		},
		{
			tool:     "up_list_transactions",
			args:     Arguments{"pageSize": 2.5},
			expected: "Error: invalid argument pageSize: expected integer, got 2.5",
		},
		{
			tool:     "up_list_accounts",
			args:     Arguments{"accountType": []interface{}{"SAVER"}},
			expected: "Error: invalid argument accountType: expected string, got array",
		},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := d.Call(context.Background(), tt.tool, tt.args)
			assert.True(t, result.IsError)
			assert.Equal(t, tt.expected, resultText(t, result))
		})
	}
}

func TestCallClientError(t *testing.T) {
	d := NewDispatcher(&fakeAPI{err: errors.New("connection refused")}, nil)

	result := d.Call(context.Background(), "up_ping", nil)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: connection refused", resultText(t, result))
}

// upServer is a fake Up API serving a few canned documents.
func upServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"errors":[{"status":"401","title":"Not Authorized"}]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"type":"transactions","id":"txn-1","attributes":{` +
			`"status":"HELD","rawText":null,"description":"Coffee & Co <Sydney>","isCategorizable":true,` +
			`"amount":{"currencyCode":"AUD","value":"-4.50","valueInBaseUnits":-450},` +
			`"note":{"text":"lunch"},"performingCustomer":{"displayName":"Bree"},"deepLinkURL":"up://transaction/txn-1",` +
			`"createdAt":"2024-05-01T09:00:00+10:00"},` +
			`"relationships":{"attachment":{"data":null}}}],` +
			`"links":{"prev":null,"next":"https://api.up.com.au/api/v1/transactions?page%5Bafter%5D=abc&page%5Bsize%5D=` +
			r.URL.Query().Get("page[size]") + `"}}`))
	})
	mux.HandleFunc("/api/v1/accounts/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"type":"accounts","id":"acc-1","attributes":{"displayName":"Spending"}}}`))
	})
	mux.HandleFunc("/api/v1/categories/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"status":"404","title":"Not Found","detail":"The resource could not be found."}]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCallAgainstUpServer(t *testing.T) {
	srv := upServer(t)
	client, err := up.NewClient("secret", up.WithBaseURL(srv.URL+"/api/v1"))
	require.NoError(t, err)
	d := NewDispatcher(client, nil)
	ctx := context.Background()

	t.Run("list transactions", func(t *testing.T) {
		result := d.Call(ctx, "up_list_transactions", Arguments{"pageSize": 1.0})
		require.False(t, result.IsError, resultText(t, result))

		text := resultText(t, result)
		assert.Contains(t, text, `"description": "Coffee & Co <Sydney>"`)
		assert.Contains(t, text, `"rawText": null`)
		assert.Contains(t, text, "page%5Bsize%5D=1")
		assert.True(t, strings.HasPrefix(text, "{\n  \"data\": ["), text)

		var decoded up.TransactionList
		require.NoError(t, json.Unmarshal([]byte(text), &decoded))
		require.Len(t, decoded.Data, 1)
		assert.Equal(t, "txn-1", decoded.Data[0].ID)
	})

	t.Run("fields outside the typed view pass through", func(t *testing.T) {
		result := d.Call(ctx, "up_list_transactions", nil)
		require.False(t, result.IsError, resultText(t, result))

		var decoded struct {
			Data []struct {
				Attributes struct {
					Note               map[string]string `json:"note"`
					PerformingCustomer map[string]string `json:"performingCustomer"`
					DeepLinkURL        string            `json:"deepLinkURL"`
				} `json:"attributes"`
				Relationships map[string]json.RawMessage `json:"relationships"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
		require.Len(t, decoded.Data, 1)

		attrs := decoded.Data[0].Attributes
		assert.Equal(t, "lunch", attrs.Note["text"])
		assert.Equal(t, "Bree", attrs.PerformingCustomer["displayName"])
		assert.Equal(t, "up://transaction/txn-1", attrs.DeepLinkURL)
		assert.JSONEq(t, `{"data":null}`, string(decoded.Data[0].Relationships["attachment"]))
	})

	t.Run("upstream error", func(t *testing.T) {
		result := d.Call(ctx, "up_get_category", Arguments{"categoryId": "missing"})
		assert.True(t, result.IsError)
		assert.Equal(t,
			"Error: Up API error: 404 Not Found\n"+`{"errors":[{"status":"404","title":"Not Found","detail":"The resource could not be found."}]}`,
			resultText(t, result))
	})

	t.Run("bad token", func(t *testing.T) {
		badClient, err := up.NewClient("wrong", up.WithBaseURL(srv.URL+"/api/v1"))
		require.NoError(t, err)

		result := NewDispatcher(badClient, nil).Call(ctx, "up_list_transactions", nil)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Error: Up API error: 401 Unauthorized")
	})
}

func TestHandlerFor(t *testing.T) {
	api := &fakeAPI{}
	d := NewDispatcher(api, nil)
	handler := d.handlerFor("up_get_account")

	result, err := handler(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: "up_get_account", Arguments: json.RawMessage(`{"accountId":"acc-9"}`)},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "acc-9", api.id)

	result, err = handler(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: "up_get_account", Arguments: json.RawMessage(`"acc-9"`)},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Error: invalid arguments: expected a JSON object")
}

// connectSession serves the catalog over an in-memory transport and returns
// a connected client session.
func connectSession(t *testing.T, api API) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "up-test", Version: "v0.0.1"}, nil)
	NewDispatcher(api, nil).GenerateTools(server)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

func TestGenerateTools(t *testing.T) {
	cs := connectSession(t, &fakeAPI{})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"up_ping",
		"up_list_accounts",
		"up_get_account",
		"up_list_transactions",
		"up_get_transaction",
		"up_list_categories",
		"up_get_category",
	}, names)
}

func TestSessionCallTool(t *testing.T) {
	srv := upServer(t)
	client, err := up.NewClient("secret", up.WithBaseURL(srv.URL+"/api/v1"))
	require.NoError(t, err)
	cs := connectSession(t, client)

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		isError  bool
		contains string
	}{
		{
			name:     "success",
			tool:     "up_list_transactions",
			args:     map[string]any{"pageSize": 3},
			contains: `"deepLinkURL": "up://transaction/txn-1"`,
		},
		{
			name:     "account lookup",
			tool:     "up_get_account",
			args:     map[string]any{"accountId": "acc-1"},
			contains: `"displayName": "Spending"`,
		},
		{
			name:     "unknown tool",
			tool:     "up_nope",
			args:     map[string]any{},
			isError:  true,
			contains: "Error: Unknown tool: up_nope",
		},
		{
			name:     "missing required id",
			tool:     "up_get_account",
			args:     map[string]any{},
			isError:  true,
			contains: "Error: missing required argument: accountId",
		},
		{
			name:     "fractional page size",
			tool:     "up_list_transactions",
			args:     map[string]any{"pageSize": 2.5},
			isError:  true,
			contains: "Error: invalid argument pageSize: expected integer, got 2.5",
		},
		{
			name:     "word page size",
			tool:     "up_list_transactions",
			args:     map[string]any{"pageSize": "ten"},
			isError:  true,
			contains: `Error: invalid argument pageSize: expected integer, got "ten"`,
		},
		{
			name:     "upstream error",
			tool:     "up_get_category",
			args:     map[string]any{"categoryId": "missing"},
			isError:  true,
			contains: "Error: Up API error: 404 Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: tt.tool, Arguments: tt.args})
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)

			text := resultText(t, result)
			assert.Contains(t, text, tt.contains)
			if tt.isError {
				assert.True(t, strings.HasPrefix(text, "Error: "), text)
			}
		})
	}
}
