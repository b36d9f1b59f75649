package render

import (
	"encoding/json"

	"github.com/aaronzipp/you-are-officially-mafia/internal/models"
)

// View is what one player is allowed to see of a session
type View struct {
	models.Snapshot
	You *Self `json:"you,omitempty"`
}

// Self carries the viewer's private information
type Self struct {
	ID     string          `json:"id"`
	Role   models.RoleKind `json:"role,omitempty"`
	Target string          `json:"target,omitempty"`
	Allies []string        `json:"allies,omitempty"`
	IsHost bool            `json:"isHost"`
	// NightTarget is only set for the Mafia during the night
	NightTarget string `json:"nightTarget,omitempty"`
	// NightReport is the Mafia's unredacted result of the last night
	NightReport *models.NightResult `json:"nightReport,omitempty"`
}

// Source is the part of a session a view is built from
type Source interface {
	Snapshot() models.Snapshot
	Player(id string) (models.Player, bool)
	Players() []models.Player
	NightTarget() string
	NightReport() *models.NightResult
}

// PlayerView projects the session for viewerID. Spectators and unknown ids
// get the public snapshot only.
func PlayerView(src Source, viewerID string) View {
	snap := src.Snapshot()
	view := View{Snapshot: snap}
	me, ok := src.Player(viewerID)
	if !ok {
		return view
	}
	self := &Self{ID: me.ID, IsHost: snap.HostID == me.ID}
	if snap.Phase != models.PhaseLobby && snap.Phase != models.PhaseRoleAssignment {
		self.Role = me.Role.Kind
		self.Target = me.Role.Target
	}
	if me.Role.Kind == models.RoleMafia {
		for _, p := range src.Players() {
			if p.ID != me.ID && p.Role.Kind == models.RoleMafia {
				self.Allies = append(self.Allies, p.ID)
			}
		}
		if snap.Phase == models.PhaseNight {
			self.NightTarget = src.NightTarget()
		}
		self.NightReport = src.NightReport()
	}
	view.You = self
	return view
}

// JSON renders the view for viewerID as a JSON string for event payloads
func JSON(src Source, viewerID string) string {
	data, err := json.Marshal(PlayerView(src, viewerID))
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Marshal renders any result as a JSON string
func Marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
