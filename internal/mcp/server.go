package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/rpggio/careplan/internal/domain/activity"
	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/draft"
	"github.com/rpggio/careplan/internal/domain/record"
	"github.com/rpggio/careplan/internal/domain/session"
	"github.com/rpggio/careplan/internal/domain/subject"
	"github.com/rpggio/careplan/internal/domain/wizard"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// WizardService defines wizard session operations needed by MCP.
type WizardService interface {
	Open(ctx context.Context, tenantID string, req session.OpenRequest) (*session.OpenResult, error)
	Retry(ctx context.Context, tenantID, id string) (*wizard.View, error)
	Get(ctx context.Context, tenantID, id string) (*wizard.Controller, error)
	Finalize(ctx context.Context, tenantID, id string, p wizard.FinalizeParams) (*wizard.FinalizeResult, error)
	Close(ctx context.Context, tenantID, id string) error
	ListActive(ctx context.Context, tenantID, subjectID string) ([]session.WizardSession, error)
}

// PlanService defines committed care plan operations needed by MCP.
type PlanService interface {
	Get(ctx context.Context, tenantID, id string) (*record.CarePlan, error)
	List(ctx context.Context, tenantID string, opts record.ListOptions) ([]record.Summary, error)
	ListVersions(ctx context.Context, tenantID, id string) ([]record.PlanVersion, error)
	Transition(ctx context.Context, tenantID string, req record.TransitionRequest) (*record.CarePlan, error)
	GetAssignments(ctx context.Context, tenantID, id string) ([]careplan.StaffAssignment, error)
	SetExternalCount(ctx context.Context, tenantID, id string, kind careplan.CounterKind, n int) error
}

// SubjectService defines subject operations needed by MCP.
type SubjectService interface {
	Create(ctx context.Context, tenantID string, req subject.CreateRequest) (*subject.Subject, error)
	Get(ctx context.Context, tenantID, id string) (*subject.Subject, error)
	List(ctx context.Context, tenantID string, opts subject.ListOptions) ([]subject.Subject, error)
}

// DraftService defines draft lookups needed by MCP.
type DraftService interface {
	ListDrafts(ctx context.Context, tenantID, subjectID string) ([]draft.Draft, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Wizards  WizardService
	Plans    PlanService
	Subjects SubjectService
	Drafts   DraftService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      TenantResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "careplan",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only and never authenticates.
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(DefaultTenant))
	}
	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services, cfg.Logger))

	return server
}

// registerTools exposes every catalog entry as an MCP tool backed by the
// same dispatch the JSON-RPC endpoint uses.
func registerTools(server *sdkmcp.Server, h *Handler) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := h.Handle(ctx, getTenantID(ctx), getSessionID(ctx), name, args)
			if err != nil {
				return toolError(err), nil
			}
			return toolResult(result)
		})
	}
}

func toolResult(result any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

// toolError reports a failed call inside the result so the client can see
// the error code and recovery hint.
func toolError(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: "INTERNAL", Message: err.Error()}
	}
	data, mErr := json.Marshal(apiErr)
	if mErr != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
