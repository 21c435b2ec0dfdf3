package ws

import (
	"github.com/mapfront/mapfront-viewer/internal/domain"
	"github.com/mapfront/mapfront-viewer/internal/projection"
	"github.com/mapfront/mapfront-viewer/internal/viewer/session"
)

// Surface command message types streamed to the client.
const (
	MsgRegisterProjections = "RegisterProjections"
	MsgSetView             = "SetView"
	MsgUpdateLayersImage   = "UpdateLayersImage"
	MsgUpdateSelection     = "UpdateSelectionImage"
	MsgApplyVisibility     = "ApplyVisibility"
	MsgBaseLayerVisibility = "SetBaseLayerVisibility"
	MsgShowTooltip         = "ShowTooltip"
	MsgHideTooltip         = "HideTooltip"
	MsgSetPrompt           = "SetPrompt"
	MsgClearPrompt         = "ClearPrompt"
)

// RemoteSurface renders through a connected client: every surface call
// becomes one websocket message. Undeliverable commands are logged and
// dropped; the client resynchronizes from state when it reconnects.
type RemoteSurface struct {
	ws       *ViewerWS
	viewerID string
}

func NewRemoteSurface(ws *ViewerWS, viewerID string) *RemoteSurface {
	return &RemoteSurface{ws: ws, viewerID: viewerID}
}

func (s *RemoteSurface) send(msgType string, data interface{}) {
	if err := s.ws.Send(s.viewerID, msgType, data); err != nil {
		s.ws.log.Warnw("failed to deliver surface command", "viewer", s.viewerID, "type", msgType, "error", err)
	}
}

func (s *RemoteSurface) RegisterProjections(defs []projection.Definition) {
	s.send(MsgRegisterProjections, defs)
}

func (s *RemoteSurface) SetView(view domain.MapView) {
	s.send(MsgSetView, view)
}

func (s *RemoteSurface) UpdateLayersImage(url string) {
	s.send(MsgUpdateLayersImage, url)
}

func (s *RemoteSurface) UpdateSelectionImage(url string) {
	s.send(MsgUpdateSelection, url)
}

func (s *RemoteSurface) ApplyVisibility(changes session.VisibilityChanges) {
	s.send(MsgApplyVisibility, map[string][]string{
		"showLayers": changes.ShowLayers,
		"showGroups": changes.ShowGroups,
		"hideLayers": changes.HideLayers,
		"hideGroups": changes.HideGroups,
	})
}

func (s *RemoteSurface) SetBaseLayerVisibility(name string, visible bool) {
	s.send(MsgBaseLayerVisibility, map[string]interface{}{"name": name, "visible": visible})
}

func (s *RemoteSurface) ShowTooltip(at session.Coordinate, html string) {
	s.send(MsgShowTooltip, map[string]interface{}{"at": at, "html": html})
}

func (s *RemoteSurface) HideTooltip() {
	s.send(MsgHideTooltip, nil)
}

func (s *RemoteSurface) SetPrompt(text string) {
	s.send(MsgSetPrompt, text)
}

func (s *RemoteSurface) ClearPrompt() {
	s.send(MsgClearPrompt, nil)
}
