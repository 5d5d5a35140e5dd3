package storage

import "time"

// Seeker is a registered job seeker.
type Seeker struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	Phone      string    `db:"phone"`
	Email      string    `db:"email"`
	FullName   string    `db:"full_name"`
	Gender     string    `db:"gender"`
	Region     string    `db:"region"`
	City       string    `db:"city"`
	Age        int       `db:"age"`
	Profession string    `db:"profession"`
	Experience string    `db:"experience"`
	Education  string    `db:"education"`
	About      string    `db:"about"`
	Lang       string    `db:"lang"`
	CreatedAt  time.Time `db:"created_at"`

	// Languages is loaded from the child table, not a column.
	Languages []SeekerLanguage `db:"-"`
}

// SeekerLanguage is one language + proficiency pair of a seeker.
type SeekerLanguage struct {
	SeekerID int64  `db:"seeker_id"`
	Language string `db:"language"`
	Level    string `db:"level"`
}

// Employer is a registered employer account.
type Employer struct {
	ID           int64     `db:"id"`
	TelegramID   int64     `db:"telegram_id"`
	Phone        string    `db:"phone"`
	Email        string    `db:"email"`
	CompanyName  string    `db:"company_name"`
	Region       string    `db:"region"`
	City         string    `db:"city"`
	PasswordHash string    `db:"password_hash"`
	Lang         string    `db:"lang"`
	CreatedAt    time.Time `db:"created_at"`
}

// Vacancy is a job posting owned by an employer.
type Vacancy struct {
	ID          int64     `db:"id"`
	EmployerID  int64     `db:"employer_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Salary      string    `db:"salary"`
	Region      string    `db:"region"`
	Contact     string    `db:"contact"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
