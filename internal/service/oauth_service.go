package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"signaware-be/internal/apperror"
	"signaware-be/internal/dto"
	"signaware-be/internal/entity"
	"signaware-be/internal/repository/specification"
	"signaware-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type IOAuthService interface {
	GetLoginURL(provider string) (string, error)
	HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error)
}

type oauthService struct {
	uowFactory unitofwork.RepositoryFactory
	googleConf *oauth2.Config
}

func NewOAuthService(uowFactory unitofwork.RepositoryFactory) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		uowFactory: uowFactory,
		googleConf: conf,
	}
}

func (s *oauthService) GetLoginURL(provider string) (string, error) {
	if provider != "google" {
		return "", apperror.Validation("unsupported provider")
	}

	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	return s.googleConf.AuthCodeURL(state), nil
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *oauthService) fetchGoogleUser(ctx context.Context, code string) (*googleUserInfo, error) {
	token, err := s.googleConf.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthorized, "code exchange failed", err)
	}

	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %v", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %v", err)
	}

	var info googleUserInfo
	if err := json.Unmarshal(content, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *oauthService) HandleCallback(ctx context.Context, provider string, code string) (*dto.LoginResponse, error) {
	if provider != "google" {
		return nil, apperror.Validation("unsupported provider")
	}

	googleUser, err := s.fetchGoogleUser(ctx, code)
	if err != nil {
		return nil, err
	}
	if !googleUser.VerifiedEmail {
		return nil, apperror.Unauthorized("google account email is not verified")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: googleUser.Email})
	if err != nil {
		return nil, apperror.Persistence("failed to look up account", err)
	}

	if user == nil {
		firstName, lastName := splitName(googleUser)
		user = &entity.User{
			Id:            uuid.New(),
			Email:         googleUser.Email,
			PasswordHash:  nil,
			FirstName:     firstName,
			LastName:      lastName,
			Role:          entity.UserRoleCustomer,
			Status:        entity.UserStatusActive,
			GoogleId:      &googleUser.ID,
			EmailVerified: true,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		if googleUser.Picture != "" {
			user.AvatarURL = &googleUser.Picture
		}

		if err := uow.Begin(ctx); err != nil {
			return nil, err
		}
		defer uow.Rollback()

		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, apperror.Persistence("failed to create account", err)
		}
		if err := uow.Commit(); err != nil {
			return nil, apperror.Persistence("failed to commit account", err)
		}
	} else {
		if user.Status == entity.UserStatusBlocked {
			return nil, apperror.Unauthorized("user account is blocked")
		}

		// Link the Google identity to a pre-existing password account.
		changed := false
		if user.GoogleId == nil {
			user.GoogleId = &googleUser.ID
			changed = true
		}
		if user.AvatarURL == nil && googleUser.Picture != "" {
			user.AvatarURL = &googleUser.Picture
			changed = true
		}
		if !user.EmailVerified {
			user.EmailVerified = true
			user.Status = entity.UserStatusActive
			changed = true
		}
		if changed {
			if err := uow.UserRepository().Update(ctx, user); err != nil {
				log.Printf("[OAuth Service] Failed to link google identity: %v", err)
			}
		}
	}

	signedToken, err := SignAccessToken(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := uow.UserRepository().RecordLogin(ctx, user.Id, now); err != nil {
		log.Printf("[OAuth Service] Failed to record login time: %v", err)
	}
	user.LastLoginAt = &now

	return &dto.LoginResponse{
		Token: signedToken,
		User:  toUserProfile(user),
	}, nil
}

func splitName(info *googleUserInfo) (string, string) {
	if info.GivenName != "" {
		return info.GivenName, info.FamilyName
	}
	parts := strings.SplitN(info.Name, " ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return info.Name, ""
}
