package api_router

import (
	"context"

	"github.com/baluardo/backup-control-service/internal/agent"
	"github.com/baluardo/backup-control-service/internal/app"
	"github.com/baluardo/backup-control-service/internal/domain"
)

// listJobBackups asks the job's agent which backup versions physically
// exist for its copy-mode mappings. Sync mappings have no versions.
func listJobBackups(ctx context.Context, a *app.App, job *domain.Job, addr string) ([]agent.PhysicalBackup, error) {
	req := &agent.JobBackupsRequest{JobID: job.ID}
	for i := range job.Mappings {
		m := &job.Mappings[i]
		mode := m.Mode
		if mode == "" {
			mode = job.ModeDefault
		}
		if mode == domain.ModeSync {
			continue
		}
		bm := agent.JobBackupMapping{Index: i, Destination: m.DestinationPath}
		if m.Credentials != nil {
			bm.Credentials = &agent.CredentialsBody{
				Username: m.Credentials.Username,
				Password: m.Credentials.Password,
				Domain:   m.Credentials.Domain,
			}
		}
		req.Mappings = append(req.Mappings, bm)
	}
	if len(req.Mappings) == 0 {
		return nil, nil
	}
	return a.AgentFactory(addr).ListJobBackups(ctx, req)
}
