package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	// ArchiveDownloadPath is where the API serves signed ZIP exports.
	ArchiveDownloadPath = "/api/v1/archives/download"

	defaultArchiveTTL = time.Hour
	archiveIssuer     = "gradex-archive"
)

// archiveClaims carries an ArchiveRequest inside a signed token.
type archiveClaims struct {
	PublicIDs      []string `json:"pids"`
	ResourceType   string   `json:"rt"`
	FlattenFolders bool     `json:"flat,omitempty"`
	jwt.RegisteredClaims
}

// ArchiveSigner turns ArchiveRequests into time-limited download links and back.
type ArchiveSigner struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

// NewArchiveSigner creates a signer. baseURL is the externally reachable
// origin of this service, e.g. https://api.gradex.example.
func NewArchiveSigner(secret, baseURL string, ttl time.Duration) (*ArchiveSigner, error) {
	if secret == "" {
		return nil, errors.New("archive signing secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = defaultArchiveTTL
	}
	return &ArchiveSigner{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// URL signs req and returns the download link.
func (s *ArchiveSigner) URL(req ArchiveRequest) (string, error) {
	if len(req.PublicIDs) == 0 {
		return "", ErrEmptyArchive
	}
	now := s.now()
	claims := &archiveClaims{
		PublicIDs:      req.PublicIDs,
		ResourceType:   req.ResourceType,
		FlattenFolders: req.FlattenFolders,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    archiveIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign archive token: %w", err)
	}
	return s.baseURL + ArchiveDownloadPath + "?token=" + url.QueryEscape(token), nil
}

// Verify checks a token produced by URL and returns the request it carries.
func (s *ArchiveSigner) Verify(token string) (ArchiveRequest, error) {
	if token == "" {
		return ArchiveRequest{}, ErrInvalidArchive
	}
	claims := &archiveClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return ArchiveRequest{}, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if claims.Issuer != archiveIssuer || len(claims.PublicIDs) == 0 {
		return ArchiveRequest{}, ErrInvalidArchive
	}

	return ArchiveRequest{
		PublicIDs:      claims.PublicIDs,
		ResourceType:   claims.ResourceType,
		FlattenFolders: claims.FlattenFolders,
	}, nil
}
