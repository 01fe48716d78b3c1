package cascade

import (
	"github.com/Zakaria-Filali-dev/banat-hawaa-school-sub001/core/user"
)

// Relational Store tables touched by a user deletion.
const (
	TableProfiles              = "profiles"
	TableSubmissions           = "submissions"
	TableSubmissionFiles       = "submission_files"
	TableEnrollments           = "enrollments"
	TableAttendance            = "attendance"
	TableAssignments           = "assignments"
	TableAssignmentAttachments = "assignment_attachments"
	TableClassSessions         = "class_sessions"
	TableTeacherSubjects       = "teacher_subjects"
	TableDocuments             = "documents"
	TableNotifications         = "notifications"
	TableAnnouncements         = "announcements"
	TableAdminMessages         = "admin_messages"
	TableSuspensions           = "suspensions"
	TablePendingApplications   = "pending_applications"
)

// Kind tells what a Step does.
type Kind int

const (
	KindFetch    Kind = iota + 1 // select ids into Step.Collect
	KindDelete                   // delete rows
	KindBlobs                    // remove the blob namespace of every value
	KindIdentity                 // delete the Identity record
	KindProfile                  // delete the Profile row
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindDelete:
		return "delete"
	case KindBlobs:
		return "blobs"
	case KindIdentity:
		return "identity"
	case KindProfile:
		return "profile"
	}
	return "unknown"
}

// Source names the set of values a Step filters on.
type Source string

const (
	SourceUserID                Source = "user_id"
	SourceEmail                 Source = "email"
	SourceSubmissions           Source = "submissions"
	SourceAssignments           Source = "assignments"
	SourceAssignmentSubmissions Source = "assignment_submissions"
)

// Step is one entry of the deletion policy table.
// Rows of Table are matched on Column against the values of Source.
// A step with DependsOn does not run when the fetch collecting it failed:
// its rows are the only path to the rows that fetch would have found.
type Step struct {
	Name      string
	Kind      Kind
	Table     string
	Column    string
	Source    Source
	Collect   Source // KindFetch only
	DependsOn Source
	Fatal     bool
}

var (
	studentSteps = []Step{
		{Name: "fetch student submissions", Kind: KindFetch, Table: TableSubmissions, Column: "student_id", Source: SourceUserID, Collect: SourceSubmissions},
		{Name: "delete submission files", Kind: KindDelete, Table: TableSubmissionFiles, Column: "submission_id", Source: SourceSubmissions},
		{Name: "delete submissions", Kind: KindDelete, Table: TableSubmissions, Column: "student_id", Source: SourceUserID, DependsOn: SourceSubmissions},
		{Name: "delete enrollments", Kind: KindDelete, Table: TableEnrollments, Column: "student_id", Source: SourceUserID},
		{Name: "delete attendance", Kind: KindDelete, Table: TableAttendance, Column: "student_id", Source: SourceUserID},
	}

	// teacher_subjects references assignments: it must be emptied first.
	teacherSteps = []Step{
		{Name: "fetch assignments", Kind: KindFetch, Table: TableAssignments, Column: "teacher_id", Source: SourceUserID, Collect: SourceAssignments},
		{Name: "delete assignment attachments", Kind: KindDelete, Table: TableAssignmentAttachments, Column: "assignment_id", Source: SourceAssignments},
		{Name: "remove assignment files", Kind: KindBlobs, Source: SourceAssignments},
		{Name: "fetch assignment submissions", Kind: KindFetch, Table: TableSubmissions, Column: "assignment_id", Source: SourceAssignments, Collect: SourceAssignmentSubmissions},
		{Name: "delete assignment submission files", Kind: KindDelete, Table: TableSubmissionFiles, Column: "submission_id", Source: SourceAssignmentSubmissions},
		{Name: "delete assignment submissions", Kind: KindDelete, Table: TableSubmissions, Column: "assignment_id", Source: SourceAssignments, DependsOn: SourceAssignmentSubmissions},
		{Name: "delete teacher subjects", Kind: KindDelete, Table: TableTeacherSubjects, Column: "teacher_id", Source: SourceUserID},
		{Name: "delete assignments", Kind: KindDelete, Table: TableAssignments, Column: "teacher_id", Source: SourceUserID, DependsOn: SourceAssignments},
		{Name: "delete class sessions", Kind: KindDelete, Table: TableClassSessions, Column: "teacher_id", Source: SourceUserID},
	}

	sharedSteps = []Step{
		{Name: "delete documents", Kind: KindDelete, Table: TableDocuments, Column: "uploaded_by", Source: SourceUserID},
		{Name: "delete notifications", Kind: KindDelete, Table: TableNotifications, Column: "user_id", Source: SourceUserID},
		{Name: "delete email notifications", Kind: KindDelete, Table: TableNotifications, Column: "recipient_email", Source: SourceEmail},
		{Name: "delete announcements", Kind: KindDelete, Table: TableAnnouncements, Column: "author_id", Source: SourceUserID},
		{Name: "delete sent messages", Kind: KindDelete, Table: TableAdminMessages, Column: "sender_id", Source: SourceUserID},
		{Name: "delete received messages", Kind: KindDelete, Table: TableAdminMessages, Column: "recipient_id", Source: SourceUserID},
		{Name: "delete suspensions", Kind: KindDelete, Table: TableSuspensions, Column: "user_id", Source: SourceUserID},
		{Name: "delete pending applications", Kind: KindDelete, Table: TablePendingApplications, Column: "email", Source: SourceEmail},
	}

	finalSteps = []Step{
		{Name: "delete identity", Kind: KindIdentity, Source: SourceUserID, Fatal: true},
		{Name: "delete profile", Kind: KindProfile, Table: TableProfiles, Column: "id", Source: SourceUserID, Fatal: true},
	}
)

// Plan returns the ordered deletion steps for a user of the given role.
// An unknown role only gets the shared and final steps.
func Plan(role user.Role) []Step {
	steps := make([]Step, 0, len(teacherSteps)+len(sharedSteps)+len(finalSteps))
	switch role {
	case user.RoleStudent:
		steps = append(steps, studentSteps...)
	case user.RoleTeacher:
		steps = append(steps, teacherSteps...)
	}
	steps = append(steps, sharedSteps...)
	return append(steps, finalSteps...)
}
