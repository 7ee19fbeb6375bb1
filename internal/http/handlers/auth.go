package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/medconnect/internal/config"
	"github.com/geocoder89/medconnect/internal/domain/category"
	"github.com/geocoder89/medconnect/internal/domain/signup"
	"github.com/geocoder89/medconnect/internal/domain/user"
	"github.com/geocoder89/medconnect/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	CreateAccount(ctx context.Context, reg signup.Registration, passwordHash string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	VerifyDummy(plain string)
}

type TokenIssuer interface {
	Issue(userID string, role user.Role) (string, error)
}

// ListingInvalidator drops cached doctor listings after a doctor signs up.
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context) error
}

type AuthHandler struct {
	accounts AccountStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	listings ListingInvalidator
	prom     *observability.Prom
	log      *slog.Logger
	timeout  time.Duration
}

type AuthOptions struct {
	Listings ListingInvalidator
	Prom     *observability.Prom
	Log      *slog.Logger
	Timeout  time.Duration
}

func NewAuthHandler(accounts AccountStore, hasher PasswordHasher, tokens TokenIssuer, opts AuthOptions) *AuthHandler {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}

	return &AuthHandler{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		listings: opts.Listings,
		prom:     opts.Prom,
		log:      opts.Log,
		timeout:  opts.Timeout,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

const invalidCredentialsMessage = "Email or password is incorrect."

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req signup.Request

	if !BindJSON(ctx, &req) {
		h.prom.AuthEvent("signup", "invalid")
		return
	}

	reg, err := req.Registration()
	if err != nil {
		h.prom.AuthEvent("signup", "invalid")

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			RespondValidation(ctx, "Missing or invalid fields for role "+req.Role, validationDetails(ve))
			return
		}

		RespondValidation(ctx, "Unknown role", nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	email := reg.Creds().Email

	_, err = h.accounts.GetByEmail(cctx, email)
	switch {
	case err == nil:
		h.prom.AuthEvent("signup", "email_taken")
		RespondConflict(ctx, "email_taken", "Email is already in use.")
		return
	case !errors.Is(err, user.ErrNotFound):
		h.log.ErrorContext(ctx.Request.Context(), "signup_lookup_failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	hash, err := h.hasher.Hash(reg.Creds().Password)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "password_hash_failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.accounts.CreateAccount(cctx, reg, hash)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			h.prom.AuthEvent("signup", "email_taken")
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		case errors.Is(err, category.ErrUnknown):
			h.prom.AuthEvent("signup", "invalid")
			RespondValidation(ctx, "Unknown category", gin.H{"fields": []FieldError{{
				Field:   "categories",
				Rule:    "unknown",
				Message: validationMessage("unknown", ""),
			}}})
		default:
			h.log.ErrorContext(ctx.Request.Context(), "signup_failed", "role", reg.Role(), "err", err)
			RespondInternal(ctx, "Could not create user")
		}
		return
	}

	if u.Role == user.RoleDoctor && h.listings != nil {
		if err := h.listings.InvalidateListings(ctx.Request.Context()); err != nil {
			h.log.WarnContext(ctx.Request.Context(), "listing_cache_invalidate_failed", "err", err)
		}
	}

	h.prom.AuthEvent("signup", "created")
	h.log.InfoContext(ctx.Request.Context(), "user_signed_up", "user_id", u.ID, "role", u.Role)

	ctx.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		h.prom.AuthEvent("login", "invalid")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	foundUser, err := h.accounts.GetByEmail(cctx, user.NormalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.log.ErrorContext(ctx.Request.Context(), "login_lookup_failed", "err", err)
			RespondInternal(ctx, "Could not sign in")
			return
		}

		h.hasher.VerifyDummy(req.Password)
		h.prom.AuthEvent("login", "invalid_credentials")
		RespondUnauthorized(ctx, "invalid_credentials", invalidCredentialsMessage)
		return
	}

	if !h.hasher.Verify(req.Password, foundUser.PasswordHash) {
		h.prom.AuthEvent("login", "invalid_credentials")
		RespondUnauthorized(ctx, "invalid_credentials", invalidCredentialsMessage)
		return
	}

	token, err := h.tokens.Issue(foundUser.ID, foundUser.Role)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "token_issue_failed", "err", err)
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.prom.AuthEvent("login", "ok")

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  foundUser,
	})
}
