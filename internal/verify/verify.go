// Package verify checks a fetched release asset before the resolver is
// allowed to use it. Two methods are supported, driven by sidecar files
// published next to the asset:
//
//   - PGP: "<url>.sig" or "<url>.asc", a detached signature checked against
//     a caller-supplied keyring.
//   - SHA256: "<url>.sha256", either a bare digest or "digest  filename"
//     lines.
//
// When both are configured both must pass.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/ZebulonRouseFrantzich/egetbox/internal/fetch"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/logging"
)

// Method indicates how an asset was verified.
type Method int

const (
	// MethodNone means no verification was configured.
	MethodNone Method = iota
	// MethodPGP is a detached OpenPGP signature.
	MethodPGP
	// MethodSHA256 is a SHA256 sidecar digest.
	MethodSHA256
)

// String returns the string representation of the method
func (m Method) String() string {
	switch m {
	case MethodNone:
		return "None"
	case MethodPGP:
		return "PGP"
	case MethodSHA256:
		return "SHA256"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

var (
	// ErrVerification wraps every failed check.
	ErrVerification = errors.New("asset verification failed")
	// ErrNoSignature means neither signature sidecar exists.
	ErrNoSignature = errors.New("no detached signature published")
)

// DefaultTimeout bounds each sidecar fetch.
const DefaultTimeout = 30 * time.Second

// Fetcher downloads sidecar files. *fetch.Client satisfies it.
type Fetcher interface {
	DownloadFile(ctx context.Context, url, destPath string, onProgress fetch.ProgressFunc, timeout time.Duration) error
}

// Verifier checks assets against a keyring and/or SHA256 sidecars.
type Verifier struct {
	fetcher Fetcher
	keyring openpgp.EntityList
	sha256  bool
	timeout time.Duration
	logger  logging.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithKeyring enables PGP verification against keyring.
func WithKeyring(keyring openpgp.EntityList) Option {
	return func(v *Verifier) {
		v.keyring = keyring
	}
}

// WithSHA256Sidecar enables "<url>.sha256" verification.
func WithSHA256Sidecar() Option {
	return func(v *Verifier) {
		v.sha256 = true
	}
}

// WithTimeout sets the per-sidecar fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		v.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(v *Verifier) {
		v.logger = logging.OrNop(l)
	}
}

// New creates a verifier that fetches sidecars through fetcher.
func New(fetcher Fetcher, opts ...Option) *Verifier {
	v := &Verifier{
		fetcher: fetcher,
		timeout: DefaultTimeout,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Methods returns the configured methods in the order they run.
func (v *Verifier) Methods() []Method {
	var methods []Method
	if len(v.keyring) > 0 {
		methods = append(methods, MethodPGP)
	}
	if v.sha256 {
		methods = append(methods, MethodSHA256)
	}
	return methods
}

// VerifyAsset checks the file at assetPath, fetched from assetURL. It is
// a no-op when no method is configured.
func (v *Verifier) VerifyAsset(ctx context.Context, assetURL, assetPath string) error {
	methods := v.Methods()
	if len(methods) == 0 {
		return nil
	}

	// Sidecars go in a scratch dir next to the asset, removed afterwards.
	scratch, err := os.MkdirTemp(filepath.Dir(assetPath), ".verify-")
	if err != nil {
		return fmt.Errorf("create verification dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	for _, m := range methods {
		switch m {
		case MethodPGP:
			err = v.verifyPGP(ctx, assetURL, assetPath, scratch)
		case MethodSHA256:
			err = v.verifySHA256(ctx, assetURL, assetPath, scratch)
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %s: %w", ErrVerification, m, assetURL, err)
		}
		v.logger.Debug("asset verified", "url", assetURL, "method", m.String())
	}
	return nil
}

func (v *Verifier) verifyPGP(ctx context.Context, assetURL, assetPath, scratch string) error {
	sigPath := filepath.Join(scratch, "signature")

	var fetched bool
	for _, ext := range []string{".sig", ".asc"} {
		err := v.fetcher.DownloadFile(ctx, assetURL+ext, sigPath, nil, v.timeout)
		if err == nil {
			fetched = true
			break
		}
		if !errors.Is(err, fetch.ErrNotFound) {
			return fmt.Errorf("fetch signature: %w", err)
		}
	}
	if !fetched {
		return ErrNoSignature
	}

	return checkSignature(v.keyring, assetPath, sigPath)
}

func (v *Verifier) verifySHA256(ctx context.Context, assetURL, assetPath, scratch string) error {
	sumPath := filepath.Join(scratch, "sha256")
	if err := v.fetcher.DownloadFile(ctx, assetURL+".sha256", sumPath, nil, v.timeout); err != nil {
		return fmt.Errorf("fetch checksum: %w", err)
	}

	expected, err := findChecksum(sumPath, assetName(assetURL))
	if err != nil {
		return err
	}
	return compareChecksum(assetPath, expected)
}

// checkSignature verifies a detached signature, armored first, then binary.
func checkSignature(keyring openpgp.EntityList, assetPath, sigPath string) error {
	asset, err := os.Open(assetPath)
	if err != nil {
		return fmt.Errorf("open asset: %w", err)
	}
	defer asset.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, asset, sig, nil)
	if err != nil {
		if _, seekErr := asset.Seek(0, io.SeekStart); seekErr != nil {
			return seekErr
		}
		if _, seekErr := sig.Seek(0, io.SeekStart); seekErr != nil {
			return seekErr
		}
		_, err = openpgp.CheckDetachedSignature(keyring, asset, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}
	return nil
}

// LoadKeyring reads an armored or binary public keyring.
func LoadKeyring(keyringPath string) (openpgp.EntityList, error) {
	f, err := os.Open(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
			return nil, seekErr
		}
		keyring, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}
	return keyring, nil
}

// assetName is the last path element of the asset URL.
func assetName(assetURL string) string {
	if u, err := url.Parse(assetURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(assetURL)
}
