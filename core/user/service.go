package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tadesk/core"
	"github.com/trezcool/tadesk/core/i18n"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type (
	Repository interface {
		// CreateUser fails with ErrEmailExists if the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		dict    *i18n.Dictionary
	}
)

// NewService returns a user Service. mailSvc may be nil, then no welcome email is sent.
func NewService(repo Repository, mailSvc core.EmailService, dict *i18n.Dictionary) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, dict: dict}
}

func emailExistsError() error {
	return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: "emailExists"})
}

// CheckUniqueness fails with a validation error wrapping ErrEmailExists when the email is taken.
func (svc *Service) CheckUniqueness(ctx context.Context, email string) error {
	_, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	switch errors.Cause(err) {
	case nil:
		return emailExistsError()
	case ErrNotFound:
		return nil
	default:
		return err
	}
}

// Create stores a new user from a validated NewUser and sends a welcome email in lang.
func (svc *Service) Create(ctx context.Context, nu NewUser, lang i18n.Code) (User, error) {
	usr := User{
		ID:         uuid.New().String(),
		Name:       nu.Name,
		Email:      nu.Email,
		Department: nu.Department,
		Title:      nu.Title,
		CreatedAt:  time.Now().UTC(),
	}
	usr.SetNames()
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, emailExistsError()
		}
		return User{}, err
	}

	svc.sendWelcomeMail(usr, lang)
	return usr, nil
}

// Authenticate returns the user matching both email and password, or ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

// ResetPassword replaces the password of the user with the given email.
// The new password goes through the same policy as at registration.
func (svc *Service) ResetPassword(ctx context.Context, validate *validator.Validate, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	pr := PasswordReset{Email: usr.Email, Password: pwd, name: usr.Name}
	if err = pr.Validate(validate); err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdateUser(ctx, usr)
}

type welcomeData struct {
	Greeting string
	Body     string
}

func (svc *Service) sendWelcomeMail(usr User, lang i18n.Code) {
	if svc.mailSvc == nil {
		return
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      svc.dict.Lookup(lang, "welcomeEmailSubject"),
		Lang:         string(lang),
		TemplateName: "welcome",
		TemplateData: welcomeData{
			Greeting: svc.dict.Format(lang, "welcomeEmailGreeting", usr.GreetingName(lang)),
			Body:     svc.dict.Lookup(lang, "welcomeEmailBody"),
		},
	}
	svc.mailSvc.SendMessages(msg)
}
