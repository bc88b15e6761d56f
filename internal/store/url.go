package store

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const defaultValkeyPort = "6379"

type connInfo struct {
	addr     string
	username string
	password string
	selectDB int
	useTLS   bool
}

// parseURL 은 redis://, rediss:// URL 또는 host[:port] 주소를 해석한다.
func parseURL(raw string) (connInfo, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return connInfo{}, errors.New("counter store url is empty")
	}
	if !strings.Contains(raw, "://") {
		return parseAddr(raw)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return connInfo{}, fmt.Errorf("parse url: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		return connInfo{}, errors.New("counter store host missing")
	}
	port := parsed.Port()
	if port == "" {
		port = defaultValkeyPort
	}

	info := connInfo{
		addr:   net.JoinHostPort(host, port),
		useTLS: strings.EqualFold(parsed.Scheme, "rediss"),
	}
	if path := strings.TrimPrefix(parsed.Path, "/"); path != "" {
		db, convErr := strconv.Atoi(path)
		if convErr != nil || db < 0 {
			return connInfo{}, fmt.Errorf("invalid counter store db: %q", path)
		}
		info.selectDB = db
	}
	if parsed.User != nil {
		info.username = parsed.User.Username()
		info.password, _ = parsed.User.Password()
	}
	return info, nil
}

func parseAddr(addr string) (connInfo, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		var addrErr *net.AddrError
		if !errors.As(err, &addrErr) {
			return connInfo{}, fmt.Errorf("invalid counter store address: %w", err)
		}
		switch addrErr.Err {
		case "missing port in address":
			host = strings.TrimSuffix(strings.TrimPrefix(addr, "["), "]")
			port = defaultValkeyPort
		case "too many colons in address":
			host = addr
			port = defaultValkeyPort
		default:
			return connInfo{}, fmt.Errorf("invalid counter store address: %w", err)
		}
	}
	if strings.TrimSpace(host) == "" {
		return connInfo{}, errors.New("counter store host missing")
	}
	return connInfo{addr: net.JoinHostPort(host, port)}, nil
}
