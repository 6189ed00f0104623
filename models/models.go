package models

import "time"

// Roles an account can carry. A role is fixed at creation.
const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
	RoleAdmin    = "admin"
)

// Item is a sellable catalog entry. Only admins create or delete items.
type Item struct {
	ItemID    string    `json:"itemId" bson:"itemId"`
	Name      string    `json:"name" bson:"name"`
	Price     float64   `json:"price" bson:"price"` // unit price
	ImageURL  string    `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Account is a login-capable principal: customer, agent or admin.
type Account struct {
	AccountID    string    `json:"accountId" bson:"accountId"`
	Name         string    `json:"name" bson:"name"`
	Phone        string    `json:"phone" bson:"phone"` // unique contact identifier
	PasswordHash string    `json:"-" bson:"passwordHash"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	LastLogin    time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
}

// VirtualCustomer is an offline customer an agent orders on behalf of.
// It has no credentials and belongs to exactly one agent.
type VirtualCustomer struct {
	CustomerID string    `json:"customerId" bson:"customerId"`
	AgentID    string    `json:"agentId" bson:"agentId"`
	Name       string    `json:"name" bson:"name"`
	Phone      string    `json:"phone" bson:"phone"`
	Address    string    `json:"address,omitempty" bson:"address,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// OwnerKind discriminates who a cart belongs to.
type OwnerKind string

const (
	OwnerAccount OwnerKind = "account" // direct customer cart
	OwnerVirtual OwnerKind = "virtual" // agent-managed cart
)

// OwnerKey scopes cart lines and order lines to their owner. Both cart
// flavors share one shape; the kind keeps the keyspaces apart.
type OwnerKey struct {
	Kind OwnerKind `json:"kind" bson:"kind"`
	ID   string    `json:"id" bson:"id"`
}

func AccountOwner(accountID string) OwnerKey {
	return OwnerKey{Kind: OwnerAccount, ID: accountID}
}

func VirtualOwner(customerID string) OwnerKey {
	return OwnerKey{Kind: OwnerVirtual, ID: customerID}
}

// CartLine is one (owner, item) quantity row. Quantity is always >= 1;
// a line that would reach zero is deleted, never stored at zero.
type CartLine struct {
	Owner    OwnerKey  `json:"owner" bson:"owner"`
	ItemID   string    `json:"itemId" bson:"itemId"`
	Quantity int       `json:"quantity" bson:"quantity"`
	AddedAt  time.Time `json:"addedAt" bson:"addedAt"`
}

// CartEntry is a cart line joined with the item details a cart view
// needs. Missing marks a line whose item has since been deleted from
// the catalog; checkout rejects such lines until they are removed.
type CartEntry struct {
	ItemID   string    `json:"itemId"`
	Name     string    `json:"name,omitempty"`
	Price    float64   `json:"price"`
	ImageURL string    `json:"imageUrl,omitempty"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
	Missing  bool      `json:"missing,omitempty"`
}

// OrderLine is the immutable record checkout produces for one cart
// line. UnitPrice is a snapshot taken at checkout time; later item
// edits or deletions do not touch it. AgentID is empty for
// self-checkout.
type OrderLine struct {
	OrderID   string    `json:"orderId" bson:"orderId"`
	Owner     OwnerKey  `json:"owner" bson:"owner"`
	ItemID    string    `json:"itemId" bson:"itemId"`
	ItemName  string    `json:"itemName" bson:"itemName"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	UnitPrice float64   `json:"unitPrice" bson:"unitPrice"`
	AgentID   string    `json:"agentId,omitempty" bson:"agentId,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
