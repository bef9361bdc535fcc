// Package rpc carries the four record store operations over JSON-RPC 2.0.
package rpc

import (
	"encoding/json"

	"github.com/rcliao/misoul/internal/model"
)

// Method names on the wire.
const (
	MethodSaveMemory        = "saveMemory"
	MethodEditMemory        = "editMemory"
	MethodDeleteMemory      = "deleteMemory"
	MethodGetMemoriesByUser = "getMemoriesByUser"
)

type SaveParams struct {
	Owner       string          `json:"owner"`
	Content     json.RawMessage `json:"content"`
	ContentType model.Tag       `json:"contentType"`
}

type EditParams struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	ContentType model.Tag `json:"contentType"`
}

type DeleteParams struct {
	ID string `json:"id"`
}

type ListParams struct {
	Owner string `json:"owner"`
}
