package up

import (
	"net/url"
	"strconv"
)

// AccountFilter narrows ListAccounts. Zero values are not sent.
type AccountFilter struct {
	AccountType   AccountType
	OwnershipType OwnershipType
}

func (f AccountFilter) values() url.Values {
	q := url.Values{}
	setIfNotEmpty(q, "filter[accountType]", string(f.AccountType))
	setIfNotEmpty(q, "filter[ownershipType]", string(f.OwnershipType))
	return q
}

// TransactionFilter narrows ListTransactions. When AccountID is set the
// account-scoped endpoint is used instead of /transactions.
//
// Since and Until are RFC 3339 date-times and are forwarded as given.
type TransactionFilter struct {
	AccountID string
	Status    TransactionStatus
	Since     string
	Until     string
	Category  string
	Tag       string
	PageSize  int
}

func (f TransactionFilter) values() url.Values {
	q := url.Values{}
	setIfNotEmpty(q, "filter[status]", string(f.Status))
	setIfNotEmpty(q, "filter[since]", f.Since)
	setIfNotEmpty(q, "filter[until]", f.Until)
	setIfNotEmpty(q, "filter[category]", f.Category)
	setIfNotEmpty(q, "filter[tag]", f.Tag)
	if f.PageSize != 0 {
		q.Set("page[size]", strconv.Itoa(f.PageSize))
	}
	return q
}

// CategoryFilter narrows ListCategories to the children of ParentID.
type CategoryFilter struct {
	ParentID string
}

func (f CategoryFilter) values() url.Values {
	q := url.Values{}
	setIfNotEmpty(q, "filter[parent]", f.ParentID)
	return q
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
