package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `careplan authors care plans for a subject through a step-by-step wizard.

Core concepts:
- Subject: the person a plan is written for. Its category (adult, older-adult, child) decides which steps apply.
- Wizard: an open editing session over one plan. Edits autosave to a draft shortly after each change.
- Draft: the autosaved, uncommitted plan. Opening the wizard again resumes the latest draft.
- Care plan: the committed, versioned record produced by finalize.

Default workflow:
1) open_wizard(subject_id[, record_id]). If load_error is set, call retry_load.
2) Read the view from get_wizard: steps, step_id, record, completion and readiness.
3) Edit with update_section / set_category; move with next_step / previous_step / jump_to_step.
4) undo restores the record as it was before the last save.
5) On the last step call check_readiness, then finalize. A plan that is not ready needs override=true.
6) close_wizard when leaving without finalizing. Pending edits are saved.

Transport notes:
- HTTP: the Mcp-Session-Id header names the wizard session.
- Stdio: pass _meta.session_id, or session_id in the tool arguments.

Docs:
- careplan://docs/steps
- careplan://docs/finalize
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "careplan://docs/steps",
		Name:        "docs_steps",
		Title:       "Wizard steps and sections",
		Description: "The authoring steps, which categories see them, and how completion is scored.",
		Content: `# Wizard steps

| Step | Section | Applies to |
|------|---------|------------|
| 1 | basicInfo | all |
| 2 | aboutMe | all |
| 3 | careTeam | all |
| 4 | general | all |
| 5 | healthConditions | all |
| 6 | medication | all |
| 7 | riskAssessments | all |
| 8 | personalCare | all |
| 9 | dietary | all |
| 10 | education | child |
| 11 | familyContact | child |
| 12 | consent | all |

Changing the category hides steps that no longer apply. Their data is kept
and comes back if the category changes again.

## Completion

Completion is the share of active steps whose section is complete, rounded
down. The medication section also counts medication records stored outside
the plan.

## Care team

careTeam.providerType is "staff" or "external". Staff plans list staffIds;
the first ID is the primary assignee. External plans name externalProvider.
`,
	},
	{
		URI:         "careplan://docs/finalize",
		Name:        "docs_finalize",
		Title:       "Finalizing a care plan",
		Description: "Readiness rules, override, statuses and error recovery.",
		Content: `# Finalize

Finalize is only available on the last active step.

A plan is ready when at least three steps are complete and a provider is
assigned: staff for a staff plan, a provider name for an external one.
A plan that is not ready returns CONFIRMATION_REQUIRED with the unmet
conditions in details. Call finalize again with override=true to commit it
anyway.

## Status

Managers and admins commit plans as active. Everyone else commits plans as
pending-approval. Pass status to choose explicitly.

Committed plans move between statuses with transition_care_plan:

- pending-approval -> active (manager or admin)
- pending-approval -> archived
- active -> archived
- archived -> active (manager or admin)

## Errors

- SAVE_FAILED: the edit is kept in memory. Call save_draft to retry.
- LOAD_FAILED: nothing was loaded. Call retry_load.
- FINALIZE_FAILED: the draft is kept. Retry finalize.
- CONFLICT: the plan changed underneath. Reopen the wizard.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
