// Package publish copies the files produced by a run to a remote or local
// target: s3://bucket/prefix, gs://bucket/prefix, sftp://user@host/dir or
// file:///dir. Credentials come from the environment, never the URL.
package publish

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Scheme names a publish backend.
type Scheme string

const (
	SchemeS3   Scheme = "s3"
	SchemeGCS  Scheme = "gs"
	SchemeSFTP Scheme = "sftp"
	SchemeFile Scheme = "file"
)

// Target is a parsed publish destination.
type Target struct {
	Scheme Scheme
	Bucket string // s3 and gs
	Host   string // sftp
	Port   string // sftp, default 22
	User   string // sftp
	Prefix string // object key prefix or remote/local directory
}

// Parse validates a publish URL.
func Parse(raw string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Target{}, fmt.Errorf("invalid publish target %q: %w", raw, err)
	}
	if u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			return Target{}, fmt.Errorf("publish target %q: put the password in MAGICKBATCH_SFTP_PASSWORD, not the URL", u.Redacted())
		}
	}

	t := Target{Scheme: Scheme(strings.ToLower(u.Scheme))}
	switch t.Scheme {
	case SchemeS3, SchemeGCS:
		if u.Host == "" {
			return Target{}, fmt.Errorf("publish target %q has no bucket", raw)
		}
		t.Bucket = u.Host
		t.Prefix = strings.Trim(u.Path, "/")
	case SchemeSFTP:
		if u.Hostname() == "" {
			return Target{}, fmt.Errorf("publish target %q has no host", raw)
		}
		t.Host = u.Hostname()
		t.Port = u.Port()
		if t.Port == "" {
			t.Port = "22"
		}
		if u.User != nil {
			t.User = u.User.Username()
		}
		t.Prefix = u.Path
		if t.Prefix == "" {
			t.Prefix = "."
		}
	case SchemeFile:
		t.Prefix = u.Path
		if u.Opaque != "" {
			// file:relative/dir
			t.Prefix = u.Opaque
		}
		if u.Host != "" && u.Host != "localhost" {
			// file://relative/dir
			t.Prefix = u.Host + u.Path
		}
		if t.Prefix == "" {
			return Target{}, fmt.Errorf("publish target %q has no directory", raw)
		}
	default:
		return Target{}, fmt.Errorf("unsupported publish scheme %q (use s3, gs, sftp or file)", u.Scheme)
	}
	return t, nil
}

// Key returns the object key or remote path for a file name.
func (t Target) Key(name string) string {
	if t.Prefix == "" {
		return name
	}
	return path.Join(t.Prefix, name)
}

func (t Target) String() string {
	switch t.Scheme {
	case SchemeS3, SchemeGCS:
		return fmt.Sprintf("%s://%s/%s", t.Scheme, t.Bucket, t.Prefix)
	case SchemeSFTP:
		host := t.Host + ":" + t.Port
		if t.User != "" {
			host = t.User + "@" + host
		}
		return fmt.Sprintf("sftp://%s%s", host, t.Prefix)
	default:
		return "file://" + t.Prefix
	}
}
