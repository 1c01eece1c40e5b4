package publish

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type sftpPublisher struct {
	target Target
	ssh    *ssh.Client
	client *sftp.Client
	made   map[string]bool
}

// sshConfig builds the client config from MAGICKBATCH_SFTP_* variables:
// USER (when the URL has none), KEY (private key file) or PASSWORD, and
// KNOWN_HOSTS (default ~/.ssh/known_hosts). Host keys are always checked
// unless INSECURE=true.
func sshConfig(t Target, getenv func(string) string) (*ssh.ClientConfig, error) {
	user := t.User
	if user == "" {
		user = getenv(envPrefix + "SFTP_USER")
	}
	if user == "" {
		return nil, fmt.Errorf("sftp publish needs a user (sftp://user@host/dir or %sSFTP_USER)", envPrefix)
	}

	var auths []ssh.AuthMethod
	if keyPath := getenv(envPrefix + "SFTP_KEY"); keyPath != "" {
		keyBytes, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	} else if pw := getenv(envPrefix + "SFTP_PASSWORD"); pw != "" {
		auths = append(auths, ssh.Password(pw))
	} else {
		return nil, fmt.Errorf("sftp publish needs %sSFTP_KEY or %sSFTP_PASSWORD", envPrefix, envPrefix)
	}

	hostKey, err := hostKeyCallback(getenv)
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            auths,
		HostKeyCallback: hostKey,
		Timeout:         10 * time.Second,
	}, nil
}

// hostKeyCallback verifies servers against a known_hosts file.
func hostKeyCallback(getenv func(string) string) (ssh.HostKeyCallback, error) {
	if v := getenv(envPrefix + "SFTP_INSECURE"); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%sSFTP_INSECURE must be true or false (got %q)", envPrefix, v)
		}
		if insecure {
			return ssh.InsecureIgnoreHostKey(), nil
		}
	}

	path := getenv(envPrefix + "SFTP_KNOWN_HOSTS")
	if path == "" {
		home := getenv("HOME")
		if home == "" {
			h, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("locate known_hosts: %w (set %sSFTP_KNOWN_HOSTS)", err, envPrefix)
			}
			home = h
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("load known hosts %s: %w (set %sSFTP_KNOWN_HOSTS, or %sSFTP_INSECURE=true to skip host key checks)",
			path, err, envPrefix, envPrefix)
	}
	return cb, nil
}

func newSFTP(ctx context.Context, t Target, getenv func(string) string) (*sftpPublisher, error) {
	cfg, err := sshConfig(t, getenv)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(t.Host, t.Port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp %s: %w", addr, err)
	}
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(clientConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("create sftp client: %w", err)
	}
	return &sftpPublisher{target: t, ssh: sshClient, client: client, made: map[string]bool{}}, nil
}

func (p *sftpPublisher) Put(_ context.Context, name string, r io.Reader) error {
	remote := p.target.Key(name)
	dir := path.Dir(remote)
	if !p.made[dir] {
		if err := mkdirAllSFTP(p.client, dir); err != nil {
			return fmt.Errorf("ensure remote dir %s: %w", dir, err)
		}
		p.made[dir] = true
	}

	f, err := p.client.Create(remote)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", remote, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("copy to remote file %s: %w", remote, err)
	}
	return nil
}

func (p *sftpPublisher) Close() error {
	p.client.Close()
	return p.ssh.Close()
}

// mkdirAllSFTP creates each missing segment of dir on the server.
func mkdirAllSFTP(client *sftp.Client, dir string) error {
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}
	cur := ""
	if strings.HasPrefix(dir, "/") {
		cur = "/"
	}
	for _, p := range strings.Split(dir, "/") {
		if p == "" {
			continue
		}
		cur = path.Join(cur, p)
		if _, err := client.Stat(cur); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("stat %s: %w", cur, err)
			}
			if err := client.Mkdir(cur); err != nil {
				return fmt.Errorf("mkdir %s: %w", cur, err)
			}
		}
	}
	return nil
}
