package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/hourbank/internal/domain/ledger"
)

// LedgerService defines the registry operations exposed as tools.
type LedgerService interface {
	State(ctx context.Context) (*ledger.Response, error)
	UpdateParameters(ctx context.Context, patch ledger.ParametersPatch) (*ledger.Response, error)
	Add(ctx context.Context, in ledger.MemberInput) (*ledger.Response, error)
	Submit(ctx context.Context, in ledger.MemberInput) (*ledger.SubmitResult, error)
	Update(ctx context.Context, id int64, patch ledger.MemberPatch) (*ledger.Response, error)
	Delete(ctx context.Context, id int64) (*ledger.Response, error)
	Clear(ctx context.Context) (*ledger.Response, error)
}

// Config contains server configuration.
type Config struct {
	Ledger  LedgerService
	Version string
	Logger  *slog.Logger
}

const serverInstructions = `hourbank converts members' contributed hours into grams and value.

- R (grams per hour) = ceil(S*p / (c*H)); each member gets g = ceil(hours*R) and v = ceil(g*c).
- Every tool returns the recomputed state: parameters S, p, c, H, the ratio R and all members with g and v.
- submit_hours updates the member with the same name or adds one, then tries to mirror the entry; uploaded=false is not a failure.
- update_member rejects hours outside [0, 10000000]; add_member and submit_hours clamp them.`

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "hourbank",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Ledger)

	return server
}
