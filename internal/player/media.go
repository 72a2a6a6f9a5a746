package player

import (
	"errors"

	"go.uber.org/zap"

	"github.com/ivlev/scene2video/internal/media"
)

// requestMediaLocked starts decoding res in the background. Frames render
// background-only until the handle lands in the cache; a settled frame is
// redrawn as soon as it does. One request is kept per identity and
// selection, so ticks do not re-request a failed decode.
func (p *Player) requestMediaLocked(res *media.Resource) {
	id := res.Identity()
	if id == p.requested {
		return
	}
	p.requested = id
	sel, kind, sceneID := p.selection, p.scene.MediaKind(), p.scene.ID

	go func() {
		_, err := p.cache.Get(p.ctx, res, kind)
		if p.ctx.Err() != nil {
			// closed
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if sel != p.selection || p.requested != id {
			return
		}
		if err != nil {
			// an eviction raced the decode; the next frame asks again
			if errors.Is(err, media.ErrStale) {
				p.requested = ""
				return
			}
			p.log.Warn("Media decode failed", zap.String("scene", sceneID), zap.Error(err))
			return
		}
		// later evictions get requested again
		p.requested = ""
		if p.state != Playing {
			p.renderStaticLocked()
		}
	}()
}

// syncMediaLocked returns the decoded handle for the current scene, applying
// volume and loop the first time each handle is seen for this scene. A cache
// miss requests the media, which covers resources bound after Select and
// entries evicted since.
func (p *Player) syncMediaLocked() media.Handle {
	if p.scene == nil || p.cache == nil {
		return nil
	}
	res := p.scene.Media()
	if res == nil {
		return nil
	}
	h, ok := p.cache.Peek(res)
	if !ok {
		p.requestMediaLocked(res)
		return nil
	}
	if h != p.applied {
		p.applied = h
		p.mediaPlaying = false
		if ctrl, ok := media.Underlying(h).(media.Controller); ok {
			v := p.scene.VisualOrDefault()
			ctrl.SetVolume(v.Volume)
			ctrl.SetLoop(v.Loop)
		}
	}
	return h
}

func (p *Player) pauseMediaLocked() {
	if !p.mediaPlaying || p.applied == nil {
		return
	}
	p.mediaPlaying = false
	if ctrl, ok := media.Underlying(p.applied).(media.Controller); ok {
		if err := ctrl.Pause(); err != nil {
			p.log.Warn("Media pause failed", zap.Error(err))
		}
	}
}
