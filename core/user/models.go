package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
)

// chineseTitle is appended to the first name to build ChineseName, whatever the title.
const chineseTitle = "教授"

// Titles offered at registration, with their dictionary keys.
var Titles = []Choice{
	{Value: "Professor", Key: "professor"},
	{Value: "Associate Professor", Key: "associateProfessor"},
	{Value: "Assistant Professor", Key: "assistantProfessor"},
	{Value: "Lecturer", Key: "lecturer"},
}

// Departments offered at registration, with their dictionary keys.
var Departments = []Choice{
	{Value: "cs", Key: "csDept"},
	{Value: "ee", Key: "eeDept"},
	{Value: "math", Key: "mathDept"},
	{Value: "physics", Key: "physicsDept"},
	{Value: "business", Key: "businessDept"},
}

type Choice struct {
	Value string `json:"value"`
	Key   string `json:"key"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Department   string    `json:"department"`
	Title        string    `json:"title"`
	DisplayName  string    `json:"displayName"`
	ChineseName  string    `json:"chineseName"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// SetNames derives DisplayName ("Title FirstName") and ChineseName ("FirstName教授").
// Both are the full name when there is no title.
func (u *User) SetNames() {
	if u.Title == "" {
		u.DisplayName = u.Name
		u.ChineseName = u.Name
		return
	}
	first := u.Name
	if fields := strings.Fields(u.Name); len(fields) > 0 {
		first = fields[0]
	}
	u.DisplayName = u.Title + " " + first
	u.ChineseName = first + chineseTitle
}

// GreetingName is the name used to greet the user in lang.
func (u User) GreetingName(lang i18n.Code) string {
	if lang != i18n.English && u.ChineseName != "" {
		return u.ChineseName
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name            string `json:"name" form:"name" validate:"required,max=64"`
	Email           string `json:"email" form:"email" validate:"required,email,max=254"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" form:"passwordConfirm" validate:"required,eqfield=Password"`
	Department      string `json:"department" form:"department" validate:"required,department"`
	Title           string `json:"title" form:"title" validate:"omitempty,title"`
	AgreeTerms      bool   `json:"agreeTerms" form:"agreeTerms" validate:"accepted"`
	Remember        bool   `json:"remember" form:"remember"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Department = core.CleanString(nu.Department)
	nu.Title = core.CleanString(nu.Title)
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Clean()

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// PasswordReset holds a new password for an existing User.
// The user's name and email feed the similarity rule.
type PasswordReset struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	name     string
}

func (pr PasswordReset) Validate(validate *validator.Validate) error {
	return validate.Struct(pr)
}
