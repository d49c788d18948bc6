// Package rbac decides whether a role, optionally overridden by an explicit
// per-module permission row, may perform an action.
package rbac

type Role string
type Module string
type Action string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleQC      Role = "qc"
	RoleUser    Role = "user"
)

const (
	ModuleProjects       Module = "projects"
	ModuleActivities     Module = "activities"
	ModuleDiscrepancies  Module = "discrepancies"
	ModuleClarifications Module = "clarifications"
	ModuleMasterData     Module = "masterdata"
	ModuleUsers          Module = "users"
	ModuleReports        Module = "reports"
)

const (
	ActionView   Action = "view"
	ActionAdd    Action = "add"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

var Modules = []Module{
	ModuleProjects,
	ModuleActivities,
	ModuleDiscrepancies,
	ModuleClarifications,
	ModuleMasterData,
	ModuleUsers,
	ModuleReports,
}

// Permission is an explicit grant row for one module.
type Permission struct {
	Module    Module `json:"module"`
	CanView   bool   `json:"canView"`
	CanAdd    bool   `json:"canAdd"`
	CanEdit   bool   `json:"canEdit"`
	CanDelete bool   `json:"canDelete"`
}

func (p Permission) Allows(action Action) bool {
	switch action {
	case ActionView:
		return p.CanView
	case ActionAdd:
		return p.CanAdd
	case ActionEdit:
		return p.CanEdit
	case ActionDelete:
		return p.CanDelete
	}
	return false
}

// Can applies the role defaults. The users module is administrative:
// managers may only view it and lower roles get nothing.
func Can(role Role, module Module, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleManager:
		if module == ModuleUsers {
			return action == ActionView
		}
		return true
	case RoleQC:
		if module == ModuleUsers {
			return false
		}
		if action == ActionView {
			return true
		}
		switch module {
		case ModuleDiscrepancies, ModuleClarifications, ModuleActivities:
			return action == ActionAdd || action == ActionEdit
		}
		return false
	case RoleUser:
		return module != ModuleUsers && action == ActionView
	default:
		return false
	}
}

// Decide returns the effective decision: admins always pass, an explicit row
// for the module wins over the role defaults.
func Decide(role Role, perms []Permission, module Module, action Action) bool {
	if role == RoleAdmin {
		return true
	}
	for _, p := range perms {
		if p.Module == module {
			return p.Allows(action)
		}
	}
	return Can(role, module, action)
}

// Effective expands role defaults and overrides into one row per module.
func Effective(role Role, perms []Permission) []Permission {
	out := make([]Permission, 0, len(Modules))
	for _, m := range Modules {
		out = append(out, Permission{
			Module:    m,
			CanView:   Decide(role, perms, m, ActionView),
			CanAdd:    Decide(role, perms, m, ActionAdd),
			CanEdit:   Decide(role, perms, m, ActionEdit),
			CanDelete: Decide(role, perms, m, ActionDelete),
		})
	}
	return out
}

func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleQC, RoleUser:
		return true
	}
	return false
}

func ValidModule(s string) bool {
	for _, m := range Modules {
		if string(m) == s {
			return true
		}
	}
	return false
}
