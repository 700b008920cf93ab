// Package dsn parses the connection URIs an external engine-factory
// collaborator hands to Open before it ever touches conn or notion: plain
// in-memory/file stores, and the two normlite+auth shapes standing in for
// a real Notion OAuth exchange.
package dsn

import (
	"net/url"
	"strings"

	"github.com/gopherdb/notionsql/internal/nerr"
)

// Kind distinguishes the four URI shapes Parse accepts.
type Kind int

const (
	// KindMemory is normlite:///:memory:.
	KindMemory Kind = iota
	// KindFile is normlite:///path/to/file.db.
	KindFile
	// KindAuthInternal is normlite+auth://internal?token=...&version=...
	KindAuthInternal
	// KindAuthExternal is normlite+auth://external?client_id=...&client_secret=...&auth_url=...
	KindAuthExternal
)

// Config is the parsed result of one connection URI.
type Config struct {
	Kind Kind

	// Path is set for KindFile: the on-disk store path. Empty for every
	// other kind.
	Path string

	// Token and Version are set for KindAuthInternal.
	Token   string
	Version string

	// ClientID, ClientSecret, and AuthURL are set for KindAuthExternal.
	ClientID     string
	ClientSecret string
	AuthURL      string
}

// Parse parses one of the four URI shapes documented for the connection
// surface. Any malformed or unrecognized URI fails KindInvalidRequest.
func Parse(uri string) (Config, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Config{}, nerr.New(nerr.KindInvalidRequest, "dsn.Parse", err)
	}

	switch u.Scheme {
	case "normlite":
		return parseMemoryOrFile(u)
	case "normlite+auth":
		return parseAuth(u)
	default:
		return Config{}, nerr.Newf(nerr.KindInvalidRequest, "dsn.Parse", "unrecognized scheme %q", u.Scheme)
	}
}

func parseMemoryOrFile(u *url.URL) (Config, error) {
	// url.Parse puts everything after the third slash of "normlite:///..."
	// into Path, with Host and Opaque empty.
	path := strings.TrimPrefix(u.Path, "/")
	if path == "" {
		return Config{}, nerr.New(nerr.KindInvalidRequest, "dsn.parseMemoryOrFile", nil)
	}
	if path == ":memory:" {
		return Config{Kind: KindMemory}, nil
	}
	return Config{Kind: KindFile, Path: path}, nil
}

func parseAuth(u *url.URL) (Config, error) {
	q := u.Query()
	switch u.Host {
	case "internal":
		token, version := q.Get("token"), q.Get("version")
		if token == "" || version == "" {
			return Config{}, nerr.New(nerr.KindInvalidRequest, "dsn.parseAuth", nil)
		}
		return Config{Kind: KindAuthInternal, Token: token, Version: version}, nil
	case "external":
		clientID, clientSecret, authURL := q.Get("client_id"), q.Get("client_secret"), q.Get("auth_url")
		if clientID == "" || clientSecret == "" || authURL == "" {
			return Config{}, nerr.New(nerr.KindInvalidRequest, "dsn.parseAuth", nil)
		}
		return Config{Kind: KindAuthExternal, ClientID: clientID, ClientSecret: clientSecret, AuthURL: authURL}, nil
	default:
		return Config{}, nerr.Newf(nerr.KindInvalidRequest, "dsn.parseAuth", "unrecognized normlite+auth host %q", u.Host)
	}
}
