package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Table names of the lending schema.
const (
	TableRole      = "role"
	TableDegree    = "degree"
	TableUser      = "user_account"
	TableStudent   = "student"
	TablePublisher = "publisher"
	TableAuthor    = "author"
	TableBook      = "book"
	TableLoan      = "loan"
	TablePayment   = "payment"
)

// StudentRole is the role name every seeded account is attached to.
const StudentRole = "STUDENT"

type PayType string

const (
	PayNormalLoan  PayType = "NORMAL_LOAN"
	PayOverdueLoan PayType = "OVERDUE_LOAN"
	PaySanction    PayType = "SANCTION"
)

type Publisher struct {
	ID   string
	Name string
}

type Author struct {
	ID          string
	Name        string
	Nationality string
	BirthDate   time.Time
}

type Book struct {
	ID              string
	AuthorID        string
	PublisherID     string
	Title           string
	Code            string
	ISBN            string
	Quantity        int
	AvailableCopies int
	PublicationDate time.Time
	Price           decimal.Decimal
	ImageURL        *string
}

type UserAccount struct {
	ID            string
	Email         string
	Password      string // bcrypt hash
	Name          string
	CUI           int64
	BirthDate     time.Time
	RoleID        string
	IsApproved    bool
	EmailVerified bool
	ImageURL      *string
}

type Student struct {
	ID           string
	UserID       string
	IsSanctioned bool
	Carnet       int
	DegreeID     string
}

type Loan struct {
	ID         string
	BookID     string
	StudentID  string
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate *time.Time // nil while the book is still out
	Debt       decimal.Decimal
}

type Payment struct {
	ID       string
	LoanID   string
	Amount   decimal.Decimal
	PaidDate time.Time
	PayType  PayType
}
