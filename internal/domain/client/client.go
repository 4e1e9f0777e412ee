package client

import (
	"regexp"
	"strings"

	"github.com/courtage/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Kind distinguishes natural persons from legal entities
type Kind string

const (
	KindIndividual Kind = "individual"
	KindCompany    Kind = "company"
)

// IsValid reports whether k is a supported client kind.
func (k Kind) IsValid() bool {
	return k == KindIndividual || k == KindCompany
}

// Client is the policyholder aggregate root
type Client struct {
	shared.TenantAggregateRoot
	Reference        string
	Kind             Kind
	FirstName        string
	LastName         string
	CompanyName      string
	Phone            string
	Email            string
	Address          string
	City             string
	IDDocumentNumber string
	ProfessionID     *uuid.UUID
	Notes            string
}

// Identity carries the naming fields of a client
type Identity struct {
	FirstName   string
	LastName    string
	CompanyName string
}

// NewClient creates a client. Individuals need a last name, companies a company name.
func NewClient(tenantID uuid.UUID, kind Kind, identity Identity) (*Client, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_CLIENT_KIND", "Client kind must be individual or company")
	}
	identity = trimIdentity(identity)
	if err := validateIdentity(kind, identity); err != nil {
		return nil, err
	}

	c := &Client{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
		FirstName:           identity.FirstName,
		LastName:            identity.LastName,
		CompanyName:         identity.CompanyName,
	}
	c.AddDomainEvent(NewClientCreatedEvent(c))
	return c, nil
}

// AssignReference sets the business reference. It can only be set once.
func (c *Client) AssignReference(ref string) error {
	if c.Reference != "" {
		return shared.NewDomainError("REFERENCE_ALREADY_SET", "Client reference is immutable once assigned")
	}
	if strings.TrimSpace(ref) == "" {
		return shared.NewDomainError("INVALID_REFERENCE", "Reference cannot be empty")
	}
	c.Reference = ref
	return nil
}

// Rename updates the naming fields.
func (c *Client) Rename(identity Identity) error {
	identity = trimIdentity(identity)
	if err := validateIdentity(c.Kind, identity); err != nil {
		return err
	}
	c.FirstName = identity.FirstName
	c.LastName = identity.LastName
	c.CompanyName = identity.CompanyName
	c.Touch()
	c.AddDomainEvent(NewClientUpdatedEvent(c))
	return nil
}

// SetContact sets phone and email.
func (c *Client) SetContact(phone, email string) error {
	phone = strings.TrimSpace(phone)
	email = strings.ToLower(strings.TrimSpace(email))
	if phone != "" {
		if err := validatePhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}
	c.Phone = phone
	c.Email = email
	c.Touch()
	return nil
}

// SetAddress sets the postal address.
func (c *Client) SetAddress(address, city string) error {
	if len(address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	if len(city) > 100 {
		return shared.NewDomainError("INVALID_CITY", "City cannot exceed 100 characters")
	}
	c.Address = strings.TrimSpace(address)
	c.City = strings.TrimSpace(city)
	c.Touch()
	return nil
}

// SetIDDocument records the identity document (national ID, passport, RCCM).
func (c *Client) SetIDDocument(number string) error {
	if len(number) > 50 {
		return shared.NewDomainError("INVALID_ID_DOCUMENT", "ID document number cannot exceed 50 characters")
	}
	c.IDDocumentNumber = strings.ToUpper(strings.TrimSpace(number))
	c.Touch()
	return nil
}

// SetProfession links the client to a profession, or clears it with nil.
func (c *Client) SetProfession(professionID *uuid.UUID) {
	c.ProfessionID = professionID
	c.Touch()
}

// SetNotes sets free-form notes.
func (c *Client) SetNotes(notes string) {
	c.Notes = notes
	c.Touch()
}

// DisplayName is the company name for companies, "First Last" otherwise.
func (c *Client) DisplayName() string {
	if c.Kind == KindCompany {
		return c.CompanyName
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func trimIdentity(identity Identity) Identity {
	return Identity{
		FirstName:   strings.TrimSpace(identity.FirstName),
		LastName:    strings.TrimSpace(identity.LastName),
		CompanyName: strings.TrimSpace(identity.CompanyName),
	}
}

func validateIdentity(kind Kind, identity Identity) error {
	switch kind {
	case KindIndividual:
		if identity.LastName == "" {
			return shared.NewDomainError("INVALID_CLIENT_NAME", "Last name is required for individuals")
		}
	case KindCompany:
		if identity.CompanyName == "" {
			return shared.NewDomainError("INVALID_CLIENT_NAME", "Company name is required for companies")
		}
	}
	if len(identity.FirstName) > 100 || len(identity.LastName) > 100 || len(identity.CompanyName) > 200 {
		return shared.NewDomainError("INVALID_CLIENT_NAME", "Client name is too long")
	}
	return nil
}

var (
	phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

func validatePhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	if !phonePattern.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
