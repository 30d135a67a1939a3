// Package auth handles signup and signin. Signup is deliberately
// partial-success: the local identity record always commits once validation
// passes, and KYC bootstrap is best-effort on top of it.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vaultbridge/internal/events"
	"vaultbridge/internal/kyc"
	"vaultbridge/internal/platform/metrics"
	"vaultbridge/internal/user"
	id "vaultbridge/pkg/domain"
	dErrors "vaultbridge/pkg/domain-errors"
	"vaultbridge/pkg/platform/sentinel"
)

// KYCLinker is the slice of the KYC coordinator signup needs.
type KYCLinker interface {
	CreateLink(ctx context.Context, fullName, email string) (kyc.Link, error)
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, email string) (string, error)
}

// SignUpRequest carries signup input.
type SignUpRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest carries signin input plus the raw User-Agent for event
// enrichment.
type SignInRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	UserAgent string `json:"-"`
}

// KYCBootstrap reports whether signup managed to attach a verification link.
// A skipped bootstrap is an explicit, assertable outcome, not a swallowed
// error.
type KYCBootstrap struct {
	Created    bool   `json:"created"`
	LinkID     string `json:"linkId,omitempty"`
	SkipReason string `json:"skipReason,omitempty"`
}

// Result is what both signup and signin return. KYC is only populated by
// signup.
type Result struct {
	AccessToken string        `json:"access_token"`
	User        user.Summary  `json:"user"`
	KYC         *KYCBootstrap `json:"kyc,omitempty"`
}

// Service implements signup and signin.
type Service struct {
	users      user.Store
	kyc        KYCLinker
	tokens     TokenIssuer
	events     events.Emitter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	bcryptCost int
}

func NewService(users user.Store, linker KYCLinker, tokens TokenIssuer, emitter events.Emitter, m *metrics.Metrics, logger *slog.Logger, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	return &Service{
		users:      users,
		kyc:        linker,
		tokens:     tokens,
		events:     emitter,
		metrics:    m,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// SignUp creates the identity record, then best-effort attaches a KYC link.
// A verification-provider outage never fails the signup; the user record is
// already committed and the link is recoverable via a later signup retry of
// the bootstrap through refresh.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (Result, error) {
	if err := validateSignUp(req); err != nil {
		return Result{}, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return Result{}, dErrors.New(dErrors.CodeConflict, "user already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return Result{}, dErrors.Wrap(dErrors.CodeInternal, "lookup user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return Result{}, dErrors.Wrap(dErrors.CodeInternal, "hash password", err)
	}

	newUser := user.User{
		ID:           id.NewUserID(),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		KYCStatus:    kyc.KYCNotStarted,
		TOSStatus:    kyc.TOSPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, newUser); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Result{}, dErrors.New(dErrors.CodeConflict, "user already exists")
		}
		return Result{}, dErrors.Wrap(dErrors.CodeInternal, "create user", err)
	}

	s.metrics.IncUsersCreated()
	s.events.Emit(ctx, events.Event{Type: events.TypeUserSignedUp, UserID: newUser.ID.String()})

	bootstrap := s.bootstrapKYC(ctx, &newUser)

	token, err := s.tokens.GenerateAccessToken(newUser.ID, newUser.Email)
	if err != nil {
		return Result{}, dErrors.Wrap(dErrors.CodeInternal, "issue token", err)
	}

	return Result{
		AccessToken: token,
		User:        user.Summarize(newUser),
		KYC:         &bootstrap,
	}, nil
}

// SignIn verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (Result, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Result{}, invalid
		}
		return Result{}, dErrors.Wrap(dErrors.CodeInternal, "lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return Result{}, invalid
	}

	token, err := s.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return Result{}, dErrors.Wrap(dErrors.CodeInternal, "issue token", err)
	}

	s.events.Emit(ctx, events.Event{
		Type:   events.TypeUserSignedIn,
		UserID: u.ID.String(),
		Data:   map[string]string{"device": DeviceLabel(req.UserAgent)},
	})

	return Result{
		AccessToken: token,
		User:        user.Summarize(u),
	}, nil
}

// bootstrapKYC attaches a verification link to a freshly created user. Any
// failure downgrades to a skip: the outcome is reported, logged, and counted,
// never thrown.
func (s *Service) bootstrapKYC(ctx context.Context, u *user.User) KYCBootstrap {
	link, err := s.kyc.CreateLink(ctx, u.FullName, u.Email)
	if err != nil {
		s.metrics.IncKYCBootstrapSkipped()
		s.logger.ErrorContext(ctx, "failed to create KYC link, continuing without verification",
			"user_id", u.ID.String(),
			"error", err,
		)
		return KYCBootstrap{SkipReason: "verification provider unavailable"}
	}

	if err := s.users.SaveKYCLink(ctx, u.ID, link.ID, link.KYCURL, link.TOSURL); err != nil {
		s.metrics.IncKYCBootstrapSkipped()
		s.logger.ErrorContext(ctx, "failed to persist KYC link",
			"user_id", u.ID.String(),
			"kyc_link_id", link.ID,
			"error", err,
		)
		return KYCBootstrap{SkipReason: "failed to persist verification link"}
	}

	u.KYCLinkID = link.ID
	u.KYCLinkURL = link.KYCURL
	u.TOSLinkURL = link.TOSURL

	s.events.Emit(ctx, events.Event{
		Type:   events.TypeKYCLinkCreated,
		UserID: u.ID.String(),
		Data:   map[string]string{"outcome": string(link.Outcome)},
	})
	return KYCBootstrap{Created: true, LinkID: link.ID}
}

func validateSignUp(req SignUpRequest) error {
	if strings.TrimSpace(req.FullName) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "fullName is required")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return dErrors.New(dErrors.CodeInvalidInput, "a valid email is required")
	}
	if len(req.Password) < 6 {
		return dErrors.New(dErrors.CodeInvalidInput, "password must be at least 6 characters")
	}
	return nil
}
