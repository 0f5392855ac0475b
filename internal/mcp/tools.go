package mcp

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

var (
	sessionProp = map[string]any{
		"type":        "string",
		"description": "Wizard session ID (omit to use the transport session)",
	}
	categoryProp = map[string]any{
		"type":        "string",
		"description": "Subject category",
		"enum":        []string{"adult", "older-adult", "child"},
	}
	statusEnum = []string{"pending-approval", "active", "archived"}
	roleProp   = map[string]any{
		"type":        "string",
		"description": "Role of the acting user",
		"enum":        []string{"carer", "manager", "admin"},
	}
	userProp = map[string]any{
		"type":        "string",
		"description": "ID of the acting user",
	}
	limitProp = map[string]any{
		"type":        "integer",
		"description": "Maximum number of results",
	}
	offsetProp = map[string]any{
		"type":        "integer",
		"description": "Offset for pagination",
	}
)

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func sessionOnly() map[string]any {
	return objectSchema(map[string]any{"session_id": sessionProp})
}

// buildToolCatalog returns all available MCP tools.
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Wizard lifecycle
		{
			Name:        "open_wizard",
			Description: "Open the care plan wizard for a subject. Resumes the latest draft unless force_new is set. Omit record_id to author a new plan.",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionProp,
				"subject_id": map[string]any{
					"type":        "string",
					"description": "Subject the plan is written for",
				},
				"record_id": map[string]any{
					"type":        "string",
					"description": "Committed care plan to edit (omit for a new plan)",
				},
				"force_new": map[string]any{
					"type":        "boolean",
					"description": "Ignore any in-progress draft and start from the committed plan",
				},
			}, "subject_id"),
		},
		{
			Name:        "retry_load",
			Description: "Retry loading a wizard whose upstream reads failed",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "get_wizard",
			Description: "Get the wizard view: active steps, current step, record, completion and readiness",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "close_wizard",
			Description: "Save pending edits and close the wizard",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "list_wizards",
			Description: "List open wizard sessions, optionally for one subject",
			InputSchema: objectSchema(map[string]any{
				"subject_id": map[string]any{
					"type":        "string",
					"description": "Subject to filter by",
				},
			}),
		},

		// Editing
		{
			Name:        "set_category",
			Description: "Change the subject category. Steps that no longer apply are hidden but their data is kept.",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionProp,
				"category":   categoryProp,
			}, "category"),
		},
		{
			Name:        "update_section",
			Description: "Replace one section of the care plan. The change is autosaved shortly after.",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionProp,
				"section": map[string]any{
					"type":        "string",
					"description": "Section key",
					"enum": []string{
						"basicInfo", "aboutMe", "careTeam", "general", "healthConditions", "medication",
						"riskAssessments", "personalCare", "dietary", "education", "familyContact", "consent",
					},
				},
				"data": map[string]any{
					"description": "Section value; null clears the section",
				},
			}, "section", "data"),
		},
		{
			Name:        "undo",
			Description: "Restore the record as it was before the last save",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "save_draft",
			Description: "Save pending edits now",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "refresh",
			Description: "Reload the subject profile and committed data, keeping in-progress edits",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "dismiss_error",
			Description: "Clear the last reported wizard error",
			InputSchema: sessionOnly(),
		},

		// Navigation
		{
			Name:        "next_step",
			Description: "Save and move to the next active step",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "previous_step",
			Description: "Save and move to the previous active step",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "jump_to_step",
			Description: "Save and move to any active step",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionProp,
				"step_id": map[string]any{
					"type":        "integer",
					"description": "Step ID from the wizard view",
				},
			}, "step_id"),
		},

		// Finalize
		{
			Name:        "check_readiness",
			Description: "Report whether the plan can be finalized without confirmation and what is missing",
			InputSchema: sessionOnly(),
		},
		{
			Name:        "finalize",
			Description: "Commit the care plan from the last step. A plan that is not ready needs override=true.",
			InputSchema: objectSchema(map[string]any{
				"session_id": sessionProp,
				"override": map[string]any{
					"type":        "boolean",
					"description": "Finalize even though the plan is not ready",
				},
				"status": map[string]any{
					"type":        "string",
					"description": "Status to commit (defaults by role)",
					"enum":        statusEnum,
				},
				"user_id": userProp,
				"role":    roleProp,
			}),
		},

		// Committed plans
		{
			Name:        "list_care_plans",
			Description: "List committed care plans with completion scores",
			InputSchema: objectSchema(map[string]any{
				"subject_id": map[string]any{
					"type":        "string",
					"description": "Subject to filter by",
				},
				"statuses": map[string]any{
					"type":        "array",
					"description": "Filter by status",
					"items": map[string]any{
						"type": "string",
						"enum": statusEnum,
					},
				},
				"limit":  limitProp,
				"offset": offsetProp,
			}),
		},
		{
			Name:        "get_care_plan",
			Description: "Get a committed care plan with its staff assignments",
			InputSchema: objectSchema(map[string]any{
				"id": map[string]any{"type": "string", "description": "Care plan ID"},
			}, "id"),
		},
		{
			Name:        "list_care_plan_versions",
			Description: "List the commit history of a care plan, oldest first",
			InputSchema: objectSchema(map[string]any{
				"id": map[string]any{"type": "string", "description": "Care plan ID"},
			}, "id"),
		},
		{
			Name:        "transition_care_plan",
			Description: "Change the status of a committed care plan",
			InputSchema: objectSchema(map[string]any{
				"id": map[string]any{"type": "string", "description": "Care plan ID"},
				"to_status": map[string]any{
					"type":        "string",
					"description": "Target status",
					"enum":        statusEnum,
				},
				"user_id": userProp,
				"role":    roleProp,
			}, "id", "to_status"),
		},
		{
			Name:        "set_external_count",
			Description: "Record how many sub-records of a kind exist for a care plan",
			InputSchema: objectSchema(map[string]any{
				"id": map[string]any{"type": "string", "description": "Care plan ID"},
				"kind": map[string]any{
					"type":        "string",
					"description": "Sub-record kind",
					"enum":        []string{"medication"},
				},
				"count": map[string]any{"type": "integer", "description": "Number of sub-records"},
			}, "id", "kind", "count"),
		},
		{
			Name:        "list_drafts",
			Description: "List autosaved drafts of a subject, newest first",
			InputSchema: objectSchema(map[string]any{
				"subject_id": map[string]any{"type": "string", "description": "Subject ID"},
			}, "subject_id"),
		},

		// Subjects
		{
			Name:        "create_subject",
			Description: "Register a subject care plans can be written for",
			InputSchema: objectSchema(map[string]any{
				"id":             map[string]any{"type": "string", "description": "Subject ID (generated if omitted)"},
				"category":       categoryProp,
				"full_name":      map[string]any{"type": "string", "description": "Full name"},
				"preferred_name": map[string]any{"type": "string", "description": "Preferred name"},
				"date_of_birth":  map[string]any{"type": "string", "description": "Date of birth (YYYY-MM-DD)"},
				"address":        map[string]any{"type": "string", "description": "Address"},
			}, "category", "full_name"),
		},
		{
			Name:        "get_subject",
			Description: "Get a subject",
			InputSchema: objectSchema(map[string]any{
				"id": map[string]any{"type": "string", "description": "Subject ID"},
			}, "id"),
		},
		{
			Name:        "list_subjects",
			Description: "List subjects, optionally by category",
			InputSchema: objectSchema(map[string]any{
				"category": categoryProp,
				"limit":    limitProp,
				"offset":   offsetProp,
			}),
		},

		// Activity
		{
			Name:        "get_recent_activity",
			Description: "Get recent activity for a subject, care plan or wizard session",
			InputSchema: objectSchema(map[string]any{
				"subject_id": map[string]any{"type": "string", "description": "Subject ID to filter by"},
				"record_id":  map[string]any{"type": "string", "description": "Care plan ID to filter by"},
				"session_id": map[string]any{"type": "string", "description": "Wizard session ID to filter by"},
				"type": map[string]any{
					"type":        "string",
					"description": "Activity type to filter by",
					"enum":        []string{"record_finalized", "status_changed", "session_opened", "session_closed"},
				},
				"limit": limitProp,
			}),
		},
	}
}
