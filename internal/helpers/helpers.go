package helpers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/golang-jwt/jwt/v5"
)

const (
	EventsFolder = "events"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
		Roles     []string `json:"roles,omitempty"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// TokenVerifier validates an access token issued by the identity provider.
type TokenVerifier interface {
	Verify(tokenStr string) (*CustomClaims, error)
}

// JWTVerifier checks Supabase access tokens. With a shared secret it verifies
// HS256 signatures locally; otherwise it fetches signing keys from the JWKS
// endpoint once and lets keyfunc refresh them in the background.
type JWTVerifier struct {
	secret  []byte
	jwksURL string

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

func NewJWTVerifier(secret, supabaseURL string) *JWTVerifier {
	v := &JWTVerifier{secret: []byte(secret)}
	if supabaseURL != "" {
		v.jwksURL = fmt.Sprintf("%s/auth/v1/.well-known/jwks.json", strings.TrimRight(supabaseURL, "/"))
	}
	return v
}

func (v *JWTVerifier) Verify(tokenStr string) (*CustomClaims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, errors.New("token is empty")
	}

	keyFunc, err := v.keyFunc()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, keyFunc, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func (v *JWTVerifier) keyFunc() (jwt.Keyfunc, error) {
	if len(v.secret) > 0 {
		return func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return v.secret, nil
		}, nil
	}

	if v.jwksURL == "" {
		return nil, errors.New("no token verification key configured")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		jwks, err := keyfunc.Get(v.jwksURL, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS: %w", err)
		}
		v.jwks = jwks
	}
	return v.jwks.Keyfunc, nil
}

// Close stops the JWKS background refresh, if one was started.
func (v *JWTVerifier) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks != nil {
		v.jwks.EndBackground()
		v.jwks = nil
	}
}

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`\d`).MatchString(password)
	hasSpecial := regexp.MustCompile(`[@$!%*?&]`).MatchString(password)
	return hasLower && hasUpper && hasNumber && hasSpecial
}

func StringTrim(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"'")
}

// CloudinaryUploader stores image bytes in a Cloudinary folder.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cld *cloudinary.Cloudinary) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cld}
}

func (u *CloudinaryUploader) UploadImage(ctx context.Context, data []byte, folder string) (string, error) {
	if u.cld == nil {
		return "", errors.New("cloudinary client is not initialized")
	}

	res, err := u.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder: folder,
		Tags:   []string{"rsvpd"},
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary upload returned no url")
	}
	return res.SecureURL, nil
}
