package forge

import "time"

// Project is the subset of a GitLab project used to address merge requests.
type Project struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
}

// MergeRequest is the subset of a GitLab merge request the note is attached to.
type MergeRequest struct {
	ID        int    `json:"id"`
	IID       int    `json:"iid"`
	ProjectID int    `json:"project_id"`
	Title     string `json:"title"`
	State     string `json:"state"`
	WebURL    string `json:"web_url"`
}

// Note is a comment on a merge request.
type Note struct {
	ID        int        `json:"id"`
	Body      string     `json:"body"`
	System    bool       `json:"system"`
	CreatedAt time.Time  `json:"created_at"`
	Author    NoteAuthor `json:"author"`
}

// NoteAuthor identifies who posted a note.
type NoteAuthor struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// createNoteRequest is the body of POST .../notes.
type createNoteRequest struct {
	Body string `json:"body"`
}
