package up

import (
	"encoding/json"
	"time"
)

// AccountType classifies an Up account.
type AccountType string

const (
	AccountTypeSaver         AccountType = "SAVER"
	AccountTypeTransactional AccountType = "TRANSACTIONAL"
	AccountTypeHomeLoan      AccountType = "HOME_LOAN"
)

// OwnershipType tells individual accounts apart from 2Up joint accounts.
type OwnershipType string

const (
	OwnershipTypeIndividual OwnershipType = "INDIVIDUAL"
	OwnershipTypeJoint      OwnershipType = "JOINT"
)

// TransactionStatus is HELD while a transaction is pending and SETTLED once
// it has cleared.
type TransactionStatus string

const (
	TransactionStatusHeld    TransactionStatus = "HELD"
	TransactionStatusSettled TransactionStatus = "SETTLED"
)

// Money is an amount in a given currency. Value is the decimal string the
// API returns, ValueInBaseUnits is the same amount in cents.
type Money struct {
	CurrencyCode     string `json:"currencyCode"`
	Value            string `json:"value"`
	ValueInBaseUnits int64  `json:"valueInBaseUnits"`
}

type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type SelfLink struct {
	Self string `json:"self"`
}

type RelatedLink struct {
	Related string `json:"related"`
}

// PaginationLinks are returned on list endpoints. They are passed through
// untouched; the client never follows them.
type PaginationLinks struct {
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

type AccountAttributes struct {
	DisplayName   string        `json:"displayName"`
	AccountType   AccountType   `json:"accountType"`
	OwnershipType OwnershipType `json:"ownershipType"`
	Balance       Money         `json:"balance"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type AccountRelationships struct {
	Transactions struct {
		Links *RelatedLink `json:"links,omitempty"`
	} `json:"transactions"`
}

type AccountResource struct {
	Type          string               `json:"type"`
	ID            string               `json:"id"`
	Attributes    AccountAttributes    `json:"attributes"`
	Relationships AccountRelationships `json:"relationships"`
	Links         *SelfLink            `json:"links,omitempty"`
}

type HoldInfo struct {
	Amount        Money  `json:"amount"`
	ForeignAmount *Money `json:"foreignAmount"`
}

type RoundUp struct {
	Amount       Money  `json:"amount"`
	BoostPortion *Money `json:"boostPortion"`
}

type Cashback struct {
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
}

type CardPurchaseMethod struct {
	Method           string  `json:"method"`
	CardNumberSuffix *string `json:"cardNumberSuffix"`
}

type TransactionAttributes struct {
	Status             TransactionStatus   `json:"status"`
	RawText            *string             `json:"rawText"`
	Description        string              `json:"description"`
	Message            *string             `json:"message"`
	IsCategorizable    bool                `json:"isCategorizable"`
	HoldInfo           *HoldInfo           `json:"holdInfo"`
	RoundUp            *RoundUp            `json:"roundUp"`
	Cashback           *Cashback           `json:"cashback"`
	Amount             Money               `json:"amount"`
	ForeignAmount      *Money              `json:"foreignAmount"`
	CardPurchaseMethod *CardPurchaseMethod `json:"cardPurchaseMethod"`
	SettledAt          *time.Time          `json:"settledAt"`
	CreatedAt          time.Time           `json:"createdAt"`
	TransactionType    *string             `json:"transactionType"`
}

// ToOne is a relationship pointing at zero or one resource.
type ToOne struct {
	Data  *ResourceIdentifier `json:"data"`
	Links *RelatedLink        `json:"links,omitempty"`
}

// ToMany is a relationship pointing at a list of resources.
type ToMany struct {
	Data  []ResourceIdentifier `json:"data"`
	Links *SelfLink            `json:"links,omitempty"`
}

type TransactionRelationships struct {
	Account         ToOne  `json:"account"`
	TransferAccount ToOne  `json:"transferAccount"`
	Category        ToOne  `json:"category"`
	ParentCategory  ToOne  `json:"parentCategory"`
	Tags            ToMany `json:"tags"`
}

type TransactionResource struct {
	Type          string                   `json:"type"`
	ID            string                   `json:"id"`
	Attributes    TransactionAttributes    `json:"attributes"`
	Relationships TransactionRelationships `json:"relationships"`
	Links         *SelfLink                `json:"links,omitempty"`
}

type CategoryAttributes struct {
	Name string `json:"name"`
}

type CategoryRelationships struct {
	Parent   ToOne  `json:"parent"`
	Children ToMany `json:"children"`
}

type CategoryResource struct {
	Type          string                `json:"type"`
	ID            string                `json:"id"`
	Attributes    CategoryAttributes    `json:"attributes"`
	Relationships CategoryRelationships `json:"relationships"`
	Links         *SelfLink             `json:"links,omitempty"`
}

// Raw keeps the response body a document was decoded from, so callers can
// hand upstream JSON on unchanged, including fields the typed view omits.
type Raw struct {
	body json.RawMessage
}

// Body returns the undecoded response. It is nil for documents that were
// not read from the API.
func (r Raw) Body() json.RawMessage {
	return r.body
}

func (r *Raw) setBody(body []byte) {
	r.body = body
}

// PingResponse is returned by /util/ping when the token is accepted.
type PingResponse struct {
	Raw
	Meta struct {
		ID          string `json:"id"`
		StatusEmoji string `json:"statusEmoji"`
	} `json:"meta"`
}

type AccountDocument struct {
	Raw
	Data AccountResource `json:"data"`
}

type AccountList struct {
	Raw
	Data  []AccountResource `json:"data"`
	Links *PaginationLinks  `json:"links,omitempty"`
}

type TransactionDocument struct {
	Raw
	Data TransactionResource `json:"data"`
}

type TransactionList struct {
	Raw
	Data  []TransactionResource `json:"data"`
	Links *PaginationLinks      `json:"links,omitempty"`
}

type CategoryDocument struct {
	Raw
	Data CategoryResource `json:"data"`
}

type CategoryList struct {
	Raw
	Data []CategoryResource `json:"data"`
}
