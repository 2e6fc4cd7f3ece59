package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"account-service/internal/domain/entity"
	repo "account-service/internal/domain/repository"
	"account-service/pkg/helpers"
	"account-service/pkg/mailer"
)

// Service implements the account lifecycle: registration, login with
// lockout, verification, password reset, session ledger, soft delete.
// Redis, GCS, Elasticsearch, and the email publisher are optional
// collaborators; when nil the corresponding side effects are skipped.
type Service struct {
	Repo    repo.AccountRepository
	Hasher  *helpers.Hasher
	JWT     *helpers.JWTManager
	Lockout entity.LockoutPolicy

	ResetCodeTTL    time.Duration
	RefreshTokenTTL time.Duration

	Redis           *redis.Client
	Logger          *logrus.Logger
	Pub             *helpers.RabbitPublisher
	GCS             *storage.Client
	GCSBucket       string
	ES              *elasticsearch.Client
	ESAccountsIndex string

	VerifyEmailURL string
	SupportURL     string
	MailEnabled    bool
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// ImageUpload carries an optional profile image from the register form.
type ImageUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

type RegisterInput struct {
	DisplayName string
	Email       string
	Password    string
	Image       *ImageUpload
}

func nowUTC() time.Time { return time.Now().UTC() }

// Register creates an inactive, unverified account, stores the optional
// profile image, queues the verification email, and issues a first
// token pair.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.Account, TokenPair, error) {
	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	token, err := helpers.GenVerificationToken()
	if err != nil {
		return nil, TokenPair{}, err
	}

	a := &entity.Account{
		DisplayName:       in.DisplayName,
		Email:             in.Email,
		PasswordHash:      hash,
		Status:            entity.StatusInactive,
		VerificationToken: token,
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return nil, TokenPair{}, err
	}

	if in.Image != nil && s.GCS != nil && s.GCSBucket != "" {
		img, err := s.uploadProfileImage(ctx, in.Image)
		if err != nil {
			return nil, TokenPair{}, err
		}
		a.ProfileImage = img
	}

	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, TokenPair{}, err
	}

	envelope, err := s.JWT.GenerateEmailEnvelope(a.Email, a.VerificationToken)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.sendEmail(ctx, mailer.TemplateVerifyEmail, a.Email, map[string]any{
		"Name":      a.DisplayName,
		"VerifyURL": s.VerifyEmailURL + "?token=" + envelope,
	})

	pair, err := s.IssueTokens(ctx, a)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.indexAccount(ctx, a)
	return a, pair, nil
}

// Login validates credentials and account state. Failed password
// checks feed the lockout policy; a successful login clears it.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.Account, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	a, err := s.Repo.GetByEmailWithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}

	now := nowUTC()
	if err := loginEligibility(a, now); err != nil {
		return nil, TokenPair{}, err
	}

	// OAuth-only accounts have no password to check against.
	if a.PasswordHash == "" || !s.Hasher.Verify(password, a.PasswordHash) {
		patch := s.Lockout.OnFailure(a, now)
		if uerr := s.Repo.UpdateLoginSecurity(ctx, a.ID, patch); uerr != nil {
			return nil, TokenPair{}, uerr
		}
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	if a.FailedLoginCount > 0 || a.LockedUntil != nil || a.IsSuspended() {
		patch := s.Lockout.OnSuccess(a, now)
		if uerr := s.Repo.UpdateLoginSecurity(ctx, a.ID, patch); uerr != nil {
			return nil, TokenPair{}, uerr
		}
		patch.Apply(a)
	}

	pair, err := s.IssueTokens(ctx, a)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return a, pair, nil
}

// loginEligibility orders the state checks so the caller sees the most
// useful failure: deleted, then an effective lock or explicit
// suspension, then the verification hint, then plain inactive. A
// suspension whose lock has expired falls through to the password
// check; success there lifts it.
func loginEligibility(a *entity.Account, now time.Time) error {
	if a.IsDeleted() {
		return ErrAccountDeleted
	}
	if a.IsLocked(now) {
		return ErrAccountLocked
	}
	if a.IsSuspended() && a.LockedUntil == nil {
		return ErrAccountSuspended
	}
	if !a.EmailVerified {
		return ErrEmailNotVerified
	}
	if a.Status == entity.StatusInactive {
		return ErrAccountNotActive
	}
	return nil
}

// IssueTokens mints an access/refresh pair, appends the refresh token
// to the account's ledger, stamps last login, and caches the session.
func (s *Service) IssueTokens(ctx context.Context, a *entity.Account) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(a.ID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(a.ID)
	if err != nil {
		return TokenPair{}, err
	}

	now := nowUTC()
	if err := s.Repo.AppendRefreshToken(ctx, a.ID, refresh, now); err != nil {
		return TokenPair{}, err
	}
	if err := s.Repo.UpdateLastLogin(ctx, a.ID, now); err != nil {
		return TokenPair{}, err
	}
	a.LastLoginAt = &now

	s.cacheSession(ctx, a)
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates a refresh token. The token must carry a valid
// signature, still be present in the ledger, and be younger than the
// ledger TTL; expired entries are rejected at use time.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*entity.Account, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidRefreshToken
	}
	a, err := s.Repo.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidRefreshToken
	}

	now := nowUTC()
	if err := loginEligibility(a, now); err != nil {
		return nil, TokenPair{}, err
	}

	ledger, err := s.Repo.ListRefreshTokens(ctx, a.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	var entry *entity.RefreshToken
	for i := range ledger {
		if ledger[i].Token == refreshToken {
			entry = &ledger[i]
			break
		}
	}
	if entry == nil || now.Sub(entry.CreatedAt) > s.RefreshTokenTTL {
		return nil, TokenPair{}, ErrInvalidRefreshToken
	}

	if err := s.Repo.RevokeRefreshToken(ctx, a.ID, refreshToken); err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, a)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return a, pair, nil
}

// Logout revokes one refresh token, or the entire ledger when none is
// given (logout everywhere).
func (s *Service) Logout(ctx context.Context, accountID, refreshToken string) error {
	if refreshToken == "" {
		if err := s.Repo.RevokeAllRefreshTokens(ctx, accountID); err != nil {
			return err
		}
		s.dropSession(ctx, accountID)
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, accountID, refreshToken)
}

// GetProfile returns the account without credential material. Tokens
// issued before a soft delete must not keep serving the account.
func (s *Service) GetProfile(ctx context.Context, accountID string) (*entity.Account, error) {
	a, err := s.Repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if a.IsDeleted() {
		return nil, ErrAccountDeleted
	}
	return a, nil
}

// IssueEmailVerification returns a signed envelope over the stored
// verification token, generating the token on first use. Repeated
// calls before verification reuse the same stored token.
func (s *Service) IssueEmailVerification(ctx context.Context, a *entity.Account) (string, error) {
	if a.VerificationToken == "" {
		token, err := helpers.GenVerificationToken()
		if err != nil {
			return "", err
		}
		if err := s.Repo.SetVerificationToken(ctx, a.ID, token); err != nil {
			return "", err
		}
		a.VerificationToken = token
	}
	return s.JWT.GenerateEmailEnvelope(a.Email, a.VerificationToken)
}

// VerifyEmail consumes a verification envelope. Every failure mode
// reports the same ErrInvalidToken. Success marks the email verified,
// clears the stored token, and activates a still-inactive account.
func (s *Service) VerifyEmail(ctx context.Context, envelope string) (*entity.Account, error) {
	claims, err := s.JWT.ParseEmailEnvelope(envelope)
	if err != nil {
		return nil, ErrInvalidToken
	}
	a, err := s.Repo.GetByVerification(ctx, claims.Email, claims.VerificationToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := s.Repo.MarkVerified(ctx, a.ID); err != nil {
		return nil, err
	}
	a.EmailVerified = true
	a.VerificationToken = ""

	if a.Status == entity.StatusInactive {
		now := nowUTC()
		if err := a.Activate("", now); err != nil {
			return nil, err
		}
		if err := s.Repo.UpdateStatus(ctx, a.ID, entity.StatusActive, "", now); err != nil {
			return nil, err
		}
	}

	if s.Redis != nil {
		_ = s.Redis.Set(ctx, helpers.VerifiedKey(a.ID), "1", 0).Err()
	}
	s.indexAccount(ctx, a)
	return a, nil
}

// ResendVerification re-issues the verification envelope for an
// unverified account and queues the email again.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	a, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if a.EmailVerified {
		return ErrAlreadyVerified
	}
	envelope, err := s.IssueEmailVerification(ctx, a)
	if err != nil {
		return err
	}
	s.sendEmail(ctx, mailer.TemplateVerifyEmail, a.Email, map[string]any{
		"Name":      a.DisplayName,
		"VerifyURL": s.VerifyEmailURL + "?token=" + envelope,
	})
	return nil
}

// IssuePasswordResetCode generates a 6-digit code, stores its hash and
// expiry, and returns the raw code for out-of-band delivery.
func (s *Service) IssuePasswordResetCode(ctx context.Context, a *entity.Account) (string, error) {
	code, err := helpers.GenResetCode()
	if err != nil {
		return "", err
	}
	hash, err := s.Hasher.Hash(code)
	if err != nil {
		return "", err
	}
	if err := s.Repo.SetResetCode(ctx, a.ID, hash, nowUTC().Add(s.ResetCodeTTL)); err != nil {
		return "", err
	}
	return code, nil
}

// ForgotPassword issues a reset code and emails it to the account.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	a, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	code, err := s.IssuePasswordResetCode(ctx, a)
	if err != nil {
		return err
	}
	s.sendEmail(ctx, mailer.TemplateResetCode, a.Email, map[string]any{
		"Name":      a.DisplayName,
		"Code":      code,
		"ExpiresIn": s.ResetCodeTTL.String(),
	})
	return nil
}

// ResetPassword consumes a reset code and sets the new password. Bad
// code and expired code fail identically, and nothing is mutated on
// the failure path. Success revokes the whole refresh ledger.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	a, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	if a.ResetCodeHash == "" || !s.Hasher.Verify(code, a.ResetCodeHash) {
		return ErrInvalidResetCode
	}
	if a.ResetCodeExpiresAt == nil || nowUTC().After(*a.ResetCodeExpiresAt) {
		return ErrInvalidResetCode
	}

	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, a.ID, hash); err != nil {
		return err
	}
	if err := s.Repo.ClearResetCode(ctx, a.ID); err != nil {
		return err
	}
	if err := s.Repo.RevokeAllRefreshTokens(ctx, a.ID); err != nil {
		return err
	}
	s.dropSession(ctx, a.ID)

	s.sendEmail(ctx, mailer.TemplateResetDone, a.Email, map[string]any{
		"Name":       a.DisplayName,
		"SupportURL": s.SupportURL,
	})
	return nil
}

// AccountTypeInfo tells a client whether deletion needs a password.
type AccountTypeInfo struct {
	AccountType                 string                 `json:"account_type"`
	OAuthProviders              []entity.OAuthProvider `json:"oauth_providers"`
	RequiresPasswordForDeletion bool                   `json:"requires_password_for_deletion"`
}

func (s *Service) AccountType(ctx context.Context, accountID string) (*AccountTypeInfo, error) {
	a, err := s.Repo.GetByIDWithPassword(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if a.IsDeleted() {
		return nil, ErrAccountDeleted
	}
	info := &AccountTypeInfo{
		AccountType:                 "local",
		OAuthProviders:              a.OAuthProviders,
		RequiresPasswordForDeletion: true,
	}
	if a.IsOAuthOnly() {
		info.AccountType = "oauth"
		info.RequiresPasswordForDeletion = false
	}
	return info, nil
}

// DeleteAccount soft-deletes. OAuth-only accounts need no password;
// local accounts must supply the correct one. Returns the account type
// so the handler can echo it.
func (s *Service) DeleteAccount(ctx context.Context, accountID, password string) (string, error) {
	a, err := s.Repo.GetByIDWithPassword(ctx, accountID)
	if err != nil || a.IsDeleted() {
		return "", ErrAccountNotFound
	}

	accountType := "local"
	if a.IsOAuthOnly() {
		accountType = "oauth"
	} else {
		if password == "" {
			return accountType, ErrPasswordRequired
		}
		if !s.Hasher.Verify(password, a.PasswordHash) {
			return accountType, ErrInvalidCredentials
		}
	}

	now := nowUTC()
	if err := a.SoftDelete(accountID, now); err != nil {
		return accountType, err
	}
	if err := s.Repo.UpdateStatus(ctx, a.ID, entity.StatusDeleted, accountID, now); err != nil {
		return accountType, err
	}
	if err := s.Repo.RevokeAllRefreshTokens(ctx, a.ID); err != nil {
		return accountType, err
	}
	s.dropSession(ctx, a.ID)

	s.sendEmail(ctx, mailer.TemplateAccountClosed, a.Email, map[string]any{
		"Name": a.DisplayName,
	})
	s.indexAccount(ctx, a)
	return accountType, nil
}

func (s *Service) uploadProfileImage(ctx context.Context, img *ImageUpload) (*entity.ProfileImage, error) {
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(img.Filename))
	objectPath := filepath.ToSlash(filepath.Join("profiles", id+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, img.ContentType, img.Reader)
	if err != nil {
		return nil, err
	}
	return &entity.ProfileImage{URL: url, ObjectID: objectPath}, nil
}

func (s *Service) cacheSession(ctx context.Context, a *entity.Account) {
	if s.Redis == nil {
		return
	}
	key := helpers.SessionKey(a.ID)
	fields := map[string]any{
		"account_id":   a.ID,
		"email":        a.Email,
		"display_name": a.DisplayName,
		"status":       string(a.Status),
		"logged_in":    true,
		"updated_at":   nowUTC().Format(time.RFC3339Nano),
	}
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("redis pipeline failed")
	}
}

func (s *Service) dropSession(ctx context.Context, accountID string) {
	if s.Redis == nil {
		return
	}
	_ = s.Redis.Del(ctx, helpers.SessionKey(accountID)).Err()
}

func (s *Service) sendEmail(ctx context.Context, template, to string, data map[string]any) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	job := mailer.EmailJob{To: to, Template: template, Data: data}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("template", template).Warn("email publish failed")
	}
}

func (s *Service) indexAccount(ctx context.Context, a *entity.Account) {
	if s.ES == nil || s.ESAccountsIndex == "" {
		return
	}
	doc := map[string]any{
		"id":           a.ID,
		"email":        a.Email,
		"display_name": a.DisplayName,
		"status":       string(a.Status),
		"created_at":   a.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":   a.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESAccountsIndex, DocumentID: a.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("account_id", a.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("account_id", a.ID).Warn("es index response error")
	}
}

// SearchAccounts performs a simple multi_match search on email and
// display name.
func (s *Service) SearchAccounts(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESAccountsIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "display_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESAccountsIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
