package tools

import (
	"context"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// BackupInput is the input for xui_backup.
type BackupInput struct{}

// BackupOutput is the output of xui_backup.
type BackupOutput struct {
	Status int  `json:"status"`
	OK     bool `json:"ok"`
}

// ToolBackup asks the panel to send its database backup to the configured
// Telegram bot. The panel answers with a status only.
func ToolBackup(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input BackupInput) (*sdkmcp.CallToolResult, BackupOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input BackupInput) (*sdkmcp.CallToolResult, BackupOutput, error) {
		status, err := d.Client.GetBackup(ctx)
		if err != nil {
			return nil, BackupOutput{}, WrapPanelError(err)
		}
		return nil, BackupOutput{Status: status, OK: status == http.StatusOK}, nil
	}
}
