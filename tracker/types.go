// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bureau-foundation/bugdesk/lib/secret"
)

// Status is the workflow state of a bug.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// Priority ranks how urgently a bug should be worked.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectArchived  ProjectStatus = "archived"
	ProjectCompleted ProjectStatus = "completed"
)

// User is the profile of an authenticated account.
type User struct {
	ID        string `json:"id" cbor:"id"`
	FirstName string `json:"firstName,omitempty" cbor:"first_name,omitempty"`
	LastName  string `json:"lastName,omitempty" cbor:"last_name,omitempty"`
	Username  string `json:"username,omitempty" cbor:"username,omitempty"`
	Email     string `json:"email,omitempty" cbor:"email,omitempty"`
	Role      string `json:"role,omitempty" cbor:"role,omitempty"`
	AvatarURL string `json:"avatar,omitempty" cbor:"avatar,omitempty"`
}

// UnmarshalJSON accepts the identifier as either "id" or "_id"; the
// server uses both depending on the endpoint.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var wire struct {
		plain
		ObjectID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*u = User(wire.plain)
	if u.ID == "" {
		u.ID = wire.ObjectID
	}
	return nil
}

// DisplayName returns "First Last", falling back to the username and
// then the email address.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// ProjectRef is a bug's reference to its project. The server sends
// either the bare project id or a populated subset of the project.
type ProjectRef struct {
	ID   string `json:"_id" cbor:"id"`
	Name string `json:"name,omitempty" cbor:"name,omitempty"`
	Key  string `json:"projectKey,omitempty" cbor:"key,omitempty"`
}

func (r *ProjectRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		*r = ProjectRef{}
		return json.Unmarshal(data, &r.ID)
	}
	type plain ProjectRef
	return json.Unmarshal(data, (*plain)(r))
}

// UserRef is a reference to another account (a team member). Like
// ProjectRef it decodes from a bare id or a populated object.
type UserRef struct {
	ID       string `json:"_id" cbor:"id"`
	Username string `json:"username,omitempty" cbor:"username,omitempty"`
	Email    string `json:"email,omitempty" cbor:"email,omitempty"`
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		*r = UserRef{}
		return json.Unmarshal(data, &r.ID)
	}
	type plain UserRef
	return json.Unmarshal(data, (*plain)(r))
}

// BugEnvironment describes where a bug was observed.
type BugEnvironment struct {
	OS      string `json:"os,omitempty"`
	Browser string `json:"browser,omitempty"`
	Device  string `json:"device,omitempty"`
	Version string `json:"version,omitempty"`
}

// Bug is a defect record. ID is the identity; BugNumber ("PROJ-001") is
// for humans and never used for equality.
type Bug struct {
	ID               string          `json:"_id"`
	BugNumber        string          `json:"bugNumber,omitempty"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	Status           Status          `json:"status,omitempty"`
	Priority         Priority        `json:"priority,omitempty"`
	Severity         string          `json:"severity,omitempty"`
	Type             string          `json:"type,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
	Project          *ProjectRef     `json:"project,omitempty"`
	StepsToReproduce []string        `json:"stepsToReproduce,omitempty"`
	ExpectedBehavior string          `json:"expectedBehavior,omitempty"`
	ActualBehavior   string          `json:"actualBehavior,omitempty"`
	Environment      *BugEnvironment `json:"environment,omitempty"`
	EstimatedHours   *float64        `json:"estimatedHours,omitempty"`
	ActualHours      *float64        `json:"actualHours,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	DueDate          *time.Time      `json:"dueDate,omitempty"`
}

// ProjectID returns the id of the bug's project, or "" if it has none.
func (b *Bug) ProjectID() string {
	if b.Project == nil {
		return ""
	}
	return b.Project.ID
}

// BugType is a project-defined bug category.
type BugType struct {
	Name        string `json:"name" cbor:"name"`
	Description string `json:"description,omitempty" cbor:"description,omitempty"`
	Color       string `json:"color,omitempty" cbor:"color,omitempty"`
}

// Project groups bugs under a short key used in bug numbers.
type Project struct {
	ID          string        `json:"_id" cbor:"id"`
	Name        string        `json:"name" cbor:"name"`
	Description string        `json:"description,omitempty" cbor:"description,omitempty"`
	Key         string        `json:"projectKey,omitempty" cbor:"key,omitempty"`
	TeamMembers []UserRef     `json:"teamMembers,omitempty" cbor:"team_members,omitempty"`
	BugTypes    []BugType     `json:"bugTypes,omitempty" cbor:"bug_types,omitempty"`
	Status      ProjectStatus `json:"status,omitempty" cbor:"status,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" cbor:"created_at"`
}

// Grant is the result of a successful credential exchange. The caller
// owns Token and must Close it.
type Grant struct {
	Token *secret.Buffer
	User  User
}

// Registration is the input to Client.Register. Password is read but not
// closed; the caller retains ownership.
type Registration struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  *secret.Buffer
}

// Validate checks the fields the server would otherwise reject.
func (r Registration) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Username) == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if strings.TrimSpace(r.Email) == "" {
		errs = append(errs, errors.New("email is required"))
	}
	if r.Password == nil || r.Password.Len() == 0 {
		errs = append(errs, errors.New("password is required"))
	}
	return errors.Join(errs...)
}

// ProfileUpdate is a partial profile patch. Empty fields are not sent.
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p == ProfileUpdate{}
}

// PasswordChange is the input to Client.ChangePassword. Both buffers stay
// owned by the caller.
type PasswordChange struct {
	Current *secret.Buffer
	New     *secret.Buffer
}

// BugInput is the body of a bug create request.
type BugInput struct {
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Project          string          `json:"project"`
	Type             string          `json:"type,omitempty"`
	Status           Status          `json:"status,omitempty"`
	Priority         Priority        `json:"priority,omitempty"`
	Severity         string          `json:"severity,omitempty"`
	Tags             []string        `json:"tags,omitempty"`
	StepsToReproduce []string        `json:"stepsToReproduce,omitempty"`
	ExpectedBehavior string          `json:"expectedBehavior,omitempty"`
	ActualBehavior   string          `json:"actualBehavior,omitempty"`
	Environment      *BugEnvironment `json:"environment,omitempty"`
	EstimatedHours   *float64        `json:"estimatedHours,omitempty"`
	ActualHours      *float64        `json:"actualHours,omitempty"`
	DueDate          *time.Time      `json:"dueDate,omitempty"`
}

// NewBugInput returns an input with the form defaults: a medium-priority,
// minor-severity open bug.
func NewBugInput(projectID string) BugInput {
	return BugInput{
		Project:  projectID,
		Type:     "bug",
		Status:   StatusOpen,
		Priority: PriorityMedium,
		Severity: "minor",
	}
}

// Normalize trims text fields and drops blank steps and tags.
func (in *BugInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Project = strings.TrimSpace(in.Project)
	in.StepsToReproduce = dropBlank(in.StepsToReproduce)
	in.Tags = dropBlank(in.Tags)
}

// Validate reports missing required fields. Call Normalize first.
func (in BugInput) Validate() error {
	var errs []error
	if in.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if in.Description == "" {
		errs = append(errs, errors.New("description is required"))
	}
	if in.Project == "" {
		errs = append(errs, errors.New("please select a project"))
	}
	return errors.Join(errs...)
}

// BugPatch is a partial bug update. Nil fields are not sent.
type BugPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Severity    *string   `json:"severity,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// StatusPatch returns a patch that changes only the status.
func StatusPatch(status Status) BugPatch {
	return BugPatch{Status: &status}
}

// ProjectInput is the body of a project create request.
type ProjectInput struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Key         string    `json:"projectKey"`
	TeamMembers []string  `json:"teamMembers,omitempty"`
	BugTypes    []BugType `json:"bugTypes,omitempty"`
}

// Normalize trims fields and upper-cases the key.
func (in *ProjectInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Key = strings.ToUpper(strings.TrimSpace(in.Key))
}

// Validate reports missing required fields. Call Normalize first.
func (in ProjectInput) Validate() error {
	var errs []error
	if in.Name == "" {
		errs = append(errs, errors.New("project name is required"))
	}
	if in.Key == "" {
		errs = append(errs, errors.New("project key is required"))
	}
	return errors.Join(errs...)
}

func dropBlank(values []string) []string {
	var kept []string
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return kept
}
