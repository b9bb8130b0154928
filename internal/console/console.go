// Package console wires the client-side core: durable session store, API
// client, identity resolver, authorization gate and role reconciler.
package console

import (
	"log/slog"
	"net/http"

	"github.com/fasops-io/fasops/internal/console/api"
	"github.com/fasops-io/fasops/internal/console/authz"
	"github.com/fasops-io/fasops/internal/console/identity"
	"github.com/fasops-io/fasops/internal/console/reconcile"
	"github.com/fasops-io/fasops/internal/console/session"
)

// Runtime bundles one session's worth of collaborators. It is constructed per
// invocation; nothing here is package-level state.
type Runtime struct {
	Store      *session.Store
	Client     *api.Client
	Resolver   *identity.Resolver
	Gate       *authz.Gate
	Reconciler *reconcile.Reconciler
}

// Options configures a Runtime.
type Options struct {
	ServerURL       string
	CredentialsPath string // empty means ~/.fasops/credentials.json
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// NewRuntime builds the dependency chain: store feeds the client's token
// source, the resolver subscribes to the store, the gate reads both.
func NewRuntime(opts Options) (*Runtime, error) {
	var creds session.CredentialStore
	if opts.CredentialsPath != "" {
		creds = session.NewFileStoreAt(opts.CredentialsPath)
	} else {
		fs, err := session.NewFileStore()
		if err != nil {
			return nil, err
		}
		creds = fs
	}

	store := session.NewStore(creds)
	client := api.NewClient(opts.ServerURL, store.Token, opts.HTTPClient)
	resolver := identity.NewResolver(client, store, opts.Logger)

	return &Runtime{
		Store:      store,
		Client:     client,
		Resolver:   resolver,
		Gate:       authz.NewGate(store, resolver),
		Reconciler: reconcile.New(client),
	}, nil
}
