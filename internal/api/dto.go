package api

import (
	"github.com/starford/pocketpick/internal/models"
)

// AddItemRequest is the request body for adding an item from text.
type AddItemRequest struct {
	ID   string   `json:"id" example:"git-log-oneline"`
	Text string   `json:"text" example:"git log --oneline --graph"`
	Tags []string `json:"tags" example:"git,shell"`
}

// AddFileRequest is the request body for adding an item from a file on the server.
type AddFileRequest struct {
	ID       string   `json:"id" example:"bashrc"`
	FilePath string   `json:"file_path" example:"/home/me/.bashrc" validate:"required"`
	Tags     []string `json:"tags" example:"dotfiles"`
}

// ItemResponse is the stored item (aliased from the domain layer).
type ItemResponse = models.PocketItem
