// internal/resolver/resolver.go
package resolver

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/coding1100/Nicola-Jane-Whatsapp-Integration/pkg/directory"
)

// ErrUnresolved means no tenant owns the webhook. The message path treats
// this as a 400; the status path logs it and acknowledges anyway.
var ErrUnresolved = errors.New("resolver: tenant unresolved")

// DefaultSubAccount is the sentinel tenant for webhooks arriving on the
// global default instance.
const DefaultSubAccount = "default"

// tokenSuffix is the "_<unixTimestamp>" tail the dispatcher appends when
// minting correlation tokens.
var tokenSuffix = regexp.MustCompile(`_\d+$`)

// Resolver determines the owning sub-account for an inbound webhook.
type Resolver struct {
	dir *directory.Directory
	log *zap.SugaredLogger
}

func New(dir *directory.Directory, log *zap.SugaredLogger) *Resolver {
	return &Resolver{dir: dir, log: log}
}

// Resolve applies the priority chain: correlation token, instance index
// (formatting-tolerant), default instance. The token is authoritative because
// the relay minted it; the other steps only exist for webhook formats that do
// not echo it back.
func (r *Resolver) Resolve(ctx context.Context, referenceID, instanceID string) (string, error) {
	if referenceID != "" {
		return tokenSuffix.ReplaceAllString(referenceID, ""), nil
	}
	if instanceID != "" {
		for _, candidate := range instanceVariants(instanceID) {
			sub, err := r.dir.SubAccountByInstance(ctx, candidate)
			if err == nil {
				return sub, nil
			}
			if err != directory.ErrNotFound {
				return "", err
			}
		}
		if def := r.dir.DefaultInstanceID(); def != "" && sameInstance(instanceID, def) {
			return DefaultSubAccount, nil
		}
	}
	return "", ErrUnresolved
}

// instanceVariants yields formatting-tolerant candidates: the id as received,
// lower-cased, with a literal "instance" prefix stripped, and with one added.
// Providers have shipped all four spellings at one time or another.
func instanceVariants(instanceID string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(instanceID)
	lower := strings.ToLower(instanceID)
	add(lower)
	if strings.HasPrefix(lower, "instance") {
		add(strings.TrimPrefix(lower, "instance"))
	} else {
		add("instance" + lower)
	}
	return out
}

func sameInstance(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "instance")
	}
	return norm(a) == norm(b)
}
