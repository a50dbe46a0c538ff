// Package drive backs up bill data and receipts to the application data
// folder of the user's Google Drive.
//
// Every failure after Initialize is an *Error carrying a Kind, so callers can
// tell a lost sign-in from a flaky network from a refused request. The adapter
// never retries on its own.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"bills/internal/backup"
	"bills/internal/core"
)

const (
	appDataFolder = "appDataFolder"
	fileFields    = "id,name,mimeType,size,createdTime,modifiedTime"

	defaultRevokeURL = "https://oauth2.googleapis.com/revoke"
)

// Scopes requested from the user.
var Scopes = []string{gdrive.DriveFileScope, gdrive.DriveAppdataScope}

// Config describes the OAuth client and where the token lives.
type Config struct {
	// ClientJSON or ClientFile hold the OAuth client downloaded from the Google console.
	ClientJSON  string
	ClientFile  string
	RedirectURL string

	// Tokens persists the signed-in token. Defaults to an in-memory store.
	Tokens TokenStore

	// Endpoint overrides the Drive API base URL.
	Endpoint string
	// RevokeURL overrides the token revocation endpoint.
	RevokeURL string
	// HTTPClient is the transport used under OAuth. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// File is the metadata of a Drive object.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	CreatedTime  time.Time `json:"createdTime"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

// Adapter is safe for concurrent use.
type Adapter struct {
	cfg    Config
	tokens TokenStore
	now    func() time.Time
	init   singleflight.Group

	mu          sync.RWMutex
	initialized bool
	oauth       *oauth2.Config
	token       *oauth2.Token
	svc         *gdrive.Service
}

func New(cfg Config) *Adapter {
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = defaultRevokeURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Adapter{cfg: cfg, tokens: tokens, now: time.Now}
}

// Initialize parses the OAuth client and restores a saved token. Concurrent
// calls share one attempt; after the first success it is a no-op.
func (a *Adapter) Initialize(ctx context.Context) error {
	a.mu.RLock()
	done := a.initialized
	a.mu.RUnlock()
	if done {
		return nil
	}

	_, err, _ := a.init.Do("init", func() (any, error) {
		return nil, a.initialize(ctx)
	})
	return err
}

func (a *Adapter) initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return nil
	}

	raw, err := a.clientCredentials()
	if err != nil {
		return err
	}
	cfg, err := google.ConfigFromJSON(raw, Scopes...)
	if err != nil {
		return fmt.Errorf("oauth config: %w", err)
	}
	if cfg.ClientID == "" {
		return ErrMissingClientID
	}
	if a.cfg.RedirectURL != "" {
		cfg.RedirectURL = a.cfg.RedirectURL
	}
	a.oauth = cfg

	tok, err := a.tokens.Load()
	if err != nil {
		slog.WarnContext(ctx, "Ignoring unreadable Drive token", "error", err)
		tok = nil
	}
	if tok != nil {
		a.connect(tok)
	}

	a.initialized = true
	slog.InfoContext(ctx, "Drive adapter initialized", "connected", a.token != nil)
	return nil
}

func (a *Adapter) clientCredentials() ([]byte, error) {
	switch {
	case strings.TrimSpace(a.cfg.ClientJSON) != "":
		return []byte(a.cfg.ClientJSON), nil
	case a.cfg.ClientFile != "":
		b, err := os.ReadFile(a.cfg.ClientFile)
		if err != nil {
			return nil, fmt.Errorf("read client file: %w", err)
		}
		return b, nil
	default:
		return nil, ErrMissingClientID
	}
}

// connect installs tok and builds the API client. Callers hold a.mu.
func (a *Adapter) connect(tok *oauth2.Token) {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, a.cfg.HTTPClient)
	src := &persistingSource{
		base:  a.oauth.TokenSource(ctx, tok),
		store: a.tokens,
		last:  tok.AccessToken,
	}
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)))}
	if a.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.cfg.Endpoint))
	}
	svc, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		// NewService only fails on invalid options, which are fixed above.
		slog.Error("Failed to create Drive service", "error", err)
		return
	}
	a.token = tok
	a.svc = svc
}

// AuthURL is where the user grants access. state is echoed back to the callback.
func (a *Adapter) AuthURL(state string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.initialized {
		return "", &Error{Kind: NotConnected, Op: "auth-url", Err: ErrNotInitialized}
	}
	return a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// SignIn exchanges an authorization code for a token and persists it.
func (a *Adapter) SignIn(ctx context.Context, code string) error {
	const op = "sign-in"
	if err := a.Initialize(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.cfg.HTTPClient)
	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return classify(op, err)
	}
	if err := a.tokens.Save(tok); err != nil {
		return &Error{Kind: Rejected, Op: op, Err: err}
	}
	a.connect(tok)
	slog.InfoContext(ctx, "Signed in to Google Drive")
	return nil
}

// SignOut forgets the token. Revocation at Google is attempted but its
// failure does not fail the sign-out.
func (a *Adapter) SignOut(ctx context.Context) error {
	a.mu.Lock()
	tok := a.token
	a.token = nil
	a.svc = nil
	a.mu.Unlock()

	if tok != nil {
		a.revoke(ctx, tok)
	}
	if err := a.tokens.Clear(); err != nil {
		return &Error{Kind: Rejected, Op: "sign-out", Err: err}
	}
	return nil
}

func (a *Adapter) revoke(ctx context.Context, tok *oauth2.Token) {
	value := tok.RefreshToken
	if value == "" {
		value = tok.AccessToken
	}
	form := url.Values{"token": {value}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Drive token revocation failed", "error", err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.WarnContext(ctx, "Drive token revocation refused", "status", resp.StatusCode)
	}
}

// IsConnected reports whether a token is present. It does not call Google.
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != nil
}

func (a *Adapter) service(op string) (*gdrive.Service, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.initialized {
		return nil, &Error{Kind: NotConnected, Op: op, Err: ErrNotInitialized}
	}
	if a.svc == nil {
		return nil, &Error{Kind: NotConnected, Op: op, Err: ErrNotConnected}
	}
	return a.svc, nil
}

// ListFiles lists the app data folder. query, when set, is appended to the
// parent clause verbatim, e.g. "and name contains 'backup_'".
func (a *Adapter) ListFiles(ctx context.Context, query string) ([]File, error) {
	const op = "list"
	svc, err := a.service(op)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf("'%s' in parents", appDataFolder)
	if query = strings.TrimSpace(query); query != "" {
		q += " " + query
	}

	var files []File
	call := svc.Files.List().
		Context(ctx).
		Spaces(appDataFolder).
		Q(q).
		OrderBy("createdTime desc").
		Fields("nextPageToken", "files("+fileFields+")")
	err = call.Pages(ctx, func(page *gdrive.FileList) error {
		for _, f := range page.Files {
			files = append(files, fromAPI(f))
		}
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	if files == nil {
		files = []File{}
	}
	return files, nil
}

// UploadFile creates a new file in the app data folder.
func (a *Adapter) UploadFile(ctx context.Context, name string, content []byte, mimeType string) (File, error) {
	const op = "upload"
	svc, err := a.service(op)
	if err != nil {
		return File{}, err
	}

	meta := &gdrive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{appDataFolder},
	}
	created, err := svc.Files.Create(meta).
		Context(ctx).
		Media(bytes.NewReader(content)).
		Fields(fileFields).
		Do()
	if err != nil {
		return File{}, classify(op, err)
	}
	slog.InfoContext(ctx, "Uploaded file to Drive", "name", name, "drive_file_id", created.Id, "size", len(content))
	return fromAPI(created), nil
}

// DownloadFile returns the content of a file.
func (a *Adapter) DownloadFile(ctx context.Context, id string) ([]byte, error) {
	const op = "download"
	svc, err := a.service(op)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, classify(op, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(op, err)
	}
	return b, nil
}

func (a *Adapter) DeleteFile(ctx context.Context, id string) error {
	const op = "delete"
	svc, err := a.service(op)
	if err != nil {
		return err
	}
	if err := svc.Files.Delete(id).Context(ctx).Do(); err != nil {
		return classify(op, err)
	}
	return nil
}

// BackupName is the Drive file name of a backup taken at now.
func BackupName(now time.Time) string {
	return "backup_" + now.UTC().Format("2006-01-02") + ".json"
}

// BackupData uploads data as a dated backup file.
func (a *Adapter) BackupData(ctx context.Context, data core.BackupData) (File, error) {
	raw, err := backup.Marshal(data)
	if err != nil {
		return File{}, &Error{Kind: Rejected, Op: "backup", Err: err}
	}
	return a.UploadFile(ctx, BackupName(a.now()), raw, "application/json")
}

// RestoreData downloads a backup and validates it. It does not write anything locally.
func (a *Adapter) RestoreData(ctx context.Context, id string) (core.BackupData, error) {
	raw, err := a.DownloadFile(ctx, id)
	if err != nil {
		return core.BackupData{}, err
	}
	data, err := backup.Decode(bytes.NewReader(raw))
	if err != nil {
		return core.BackupData{}, &Error{Kind: Rejected, Op: "restore", Err: err}
	}
	return data, nil
}

// ListBackups lists backup files, newest first.
func (a *Adapter) ListBackups(ctx context.Context) ([]File, error) {
	return a.ListFiles(ctx, "and name contains 'backup_'")
}

// UploadReceipt stores an attachment next to the backups.
func (a *Adapter) UploadReceipt(ctx context.Context, billID string, file core.BillFile, content []byte) (File, error) {
	return a.UploadFile(ctx, "receipt_"+billID+"_"+file.Name, content, file.Type)
}

func fromAPI(f *gdrive.File) File {
	out := File{ID: f.Id, Name: f.Name, MimeType: f.MimeType, Size: f.Size}
	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		out.CreatedTime = t
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		out.ModifiedTime = t
	}
	return out
}
