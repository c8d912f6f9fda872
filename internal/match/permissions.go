package match

import (
	"fmt"
	"slices"
)

// Action is what a user wants to do with a report artifact.
type Action string

const (
	ActionView   Action = "view"
	ActionUpload Action = "upload"
	ActionDelete Action = "delete"
)

// Actions lists every action known to the permission matrix.
func Actions() []Action {
	return []Action{ActionView, ActionUpload, ActionDelete}
}

// reportPermissions is the role x action matrix of report types a user may touch.
// Every role must list every action, even when the list is empty.
var reportPermissions = map[Role]map[Action][]ReportType{
	RoleAdmin: {
		ActionView:   {ReportObserver, ReportMentor, ReportTV},
		ActionUpload: {ReportObserver, ReportMentor, ReportTV},
		ActionDelete: {ReportObserver, ReportMentor, ReportTV},
	},
	RoleMentor: {
		ActionView:   {ReportObserver, ReportMentor, ReportTV},
		ActionUpload: {ReportMentor, ReportTV},
		ActionDelete: {ReportMentor, ReportTV},
	},
	RoleObserver: {
		ActionView:   {ReportObserver},
		ActionUpload: {ReportObserver},
		ActionDelete: {ReportObserver},
	},
	RoleReferee: {
		ActionView:   {ReportObserver, ReportMentor, ReportTV},
		ActionUpload: {},
		ActionDelete: {},
	},
}

// ValidatePermissions checks that the matrix covers every role and action and
// only names known report types. It runs once at startup.
func ValidatePermissions() error {
	return validateMatrix(reportPermissions)
}

func validateMatrix(matrix map[Role]map[Action][]ReportType) error {
	for _, role := range Roles() {
		actions, ok := matrix[role]
		if !ok {
			return fmt.Errorf("permission matrix has no entry for role %q", role)
		}
		for _, action := range Actions() {
			types, ok := actions[action]
			if !ok {
				return fmt.Errorf("permission matrix has no entry for role %q action %q", role, action)
			}
			for _, rt := range types {
				if _, ok := reportSlots[rt]; !ok {
					return fmt.Errorf("permission matrix names unknown report type %q for role %q", rt, role)
				}
			}
		}
	}
	return nil
}

// ValidateUserAction decides whether user may perform action on the report of
// type rt attached to m. Observers and referees only reach matches they are
// assigned to.
func ValidateUserAction(user User, m *Match, rt ReportType, action Action) error {
	allowed := reportPermissions[user.Role][action]
	if !slices.Contains(allowed, rt) {
		return fmt.Errorf("%w: role %s cannot %s %s reports", ErrForbidden, user.Role, action, rt)
	}
	switch user.Role {
	case RoleObserver:
		if m.ObserverID != user.ID {
			return fmt.Errorf("%w: observer is not assigned to match %s", ErrForbidden, m.ID)
		}
	case RoleReferee:
		if m.RefereeID != user.ID {
			return fmt.Errorf("%w: referee is not assigned to match %s", ErrForbidden, m.ID)
		}
	}
	return nil
}
