package server

import (
	"net/http"
	"time"

	"sangan/internal/config"
	"sangan/internal/generated"
	"sangan/internal/lens"
	"sangan/internal/zoom"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// SanganHandler は生成されたServerInterfaceを実装する
type SanganHandler struct {
	config  *config.Config
	manager *zoom.Manager
	frames  <-chan []byte // 映像パイプラインのフレーム。nilならストリーミング不可
}

// HealthCheck はヘルスチェックエンドポイントの実装
func (h *SanganHandler) HealthCheck(c *gin.Context) {
	response := generated.HealthResponse{
		Status:    generated.Healthy,
		Timestamp: time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// GetStatus はシステム状態取得エンドポイントの実装
func (h *SanganHandler) GetStatus(c *gin.Context) {
	position := generated.LensPosition(h.config.Camera.Position)
	lensCount := 0
	if st, err := h.manager.Snapshot(); err == nil {
		position = generated.LensPosition(st.Position)
		if profiles, err := h.manager.Profiles(); err == nil {
			lensCount = len(profiles)
		}
	}

	response := generated.StatusResponse{
		Status: generated.Running,
		Server: generated.ServerInfo{
			Host: h.config.Server.Host,
			Port: h.config.Server.Port,
		},
		Backend:   h.config.Camera.Backend,
		Position:  position,
		LensCount: lensCount,
		Timestamp: time.Now(),
	}

	c.JSON(http.StatusOK, response)
}

// GetZoom はズーム状態取得エンドポイントの実装
func (h *SanganHandler) GetZoom(c *gin.Context) {
	st, err := h.manager.Snapshot()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}
	presets, err := h.manager.PresetStops()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}

	c.JSON(http.StatusOK, generated.ZoomResponse{
		State:   toZoomState(st),
		Presets: presets,
	})
}

// RequestZoom はズーム要求エンドポイントの実装
// 要求は非同期に適用されるため202と受理結果を返す
func (h *SanganHandler) RequestZoom(c *gin.Context) {
	var body generated.RequestZoomJSONRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, generated.ErrorResponse{
			Error:     "invalid_request",
			Message:   "リクエストボディが不正です",
			Details:   stringPtr(err.Error()),
			Timestamp: time.Now(),
		})
		return
	}

	mode := zoom.ModeInstant
	if body.Mode != nil {
		mode = zoom.TransitionMode(*body.Mode)
		if !mode.IsValid() {
			c.JSON(http.StatusBadRequest, generated.ErrorResponse{
				Error:     "invalid_mode",
				Message:   "未知の遷移種別です",
				Timestamp: time.Now(),
			})
			return
		}
	}

	outcome, err := h.manager.Request(body.UiZoom, mode)
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}

	st, err := h.manager.Snapshot()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}
	c.JSON(http.StatusAccepted, generated.ZoomAccepted{
		Outcome: generated.RequestOutcome(outcome),
		State:   toZoomState(st),
	})
}

// GetZoomPresets はズームプリセット取得エンドポイントの実装
func (h *SanganHandler) GetZoomPresets(c *gin.Context) {
	presets, err := h.manager.PresetStops()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}
	thresholds, err := h.manager.Thresholds()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}

	ts := make([]generated.ThresholdInfo, 0, len(thresholds))
	for _, t := range thresholds {
		ts = append(ts, generated.ThresholdInfo{
			Lower:  generated.LensKind(t.Lower),
			Upper:  generated.LensKind(t.Upper),
			DownUi: t.DownUI,
			UpUi:   t.UpUI,
		})
	}

	c.JSON(http.StatusOK, generated.PresetsResponse{
		Presets:    presets,
		Thresholds: ts,
	})
}

// ListLenses はレンズ一覧取得エンドポイントの実装
func (h *SanganHandler) ListLenses(c *gin.Context) {
	st, err := h.manager.Snapshot()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}
	profiles, err := h.manager.Profiles()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}

	lenses := make([]generated.LensInfo, 0, len(profiles))
	for _, p := range profiles {
		lenses = append(lenses, toLensInfo(p, p.Kind == st.ActiveLens))
	}

	c.JSON(http.StatusOK, generated.LensesResponse{
		Position: generated.LensPosition(st.Position),
		Lenses:   lenses,
	})
}

// GetLens は個別レンズ情報取得エンドポイントの実装
func (h *SanganHandler) GetLens(c *gin.Context, kind generated.LensKind) {
	st, err := h.manager.Snapshot()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}
	profiles, err := h.manager.Profiles()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}

	for _, p := range profiles {
		if p.Kind == lens.Kind(kind) {
			c.JSON(http.StatusOK, toLensInfo(p, p.Kind == st.ActiveLens))
			return
		}
	}

	c.JSON(http.StatusNotFound, generated.ErrorResponse{
		Error:     "lens_not_found",
		Message:   "指定されたレンズは現在の構成に存在しません",
		Timestamp: time.Now(),
	})
}

// SetPosition はカメラ位置切り替えエンドポイントの実装
func (h *SanganHandler) SetPosition(c *gin.Context) {
	var body generated.SetPositionJSONRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, generated.ErrorResponse{
			Error:     "invalid_request",
			Message:   "リクエストボディが不正です",
			Details:   stringPtr(err.Error()),
			Timestamp: time.Now(),
		})
		return
	}

	pos := lens.Position(body.Position)
	if !pos.IsValid() {
		c.JSON(http.StatusBadRequest, generated.ErrorResponse{
			Error:     "invalid_position",
			Message:   "未知のカメラ位置です",
			Timestamp: time.Now(),
		})
		return
	}

	if err := h.manager.SwitchPosition(c.Request.Context(), pos); err != nil {
		c.JSON(http.StatusServiceUnavailable, generated.ErrorResponse{
			Error:     "position_switch_failed",
			Message:   "カメラ位置の切り替えに失敗しました",
			Details:   stringPtr(err.Error()),
			Timestamp: time.Now(),
		})
		return
	}

	st, err := h.manager.Snapshot()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}
	c.JSON(http.StatusOK, toZoomState(st))
}

// StreamZoomEvents はズーム状態のSSE配信エンドポイントの実装
// 位置切替で購読チャンネルが閉じられた場合は新しいセッションへ
// 再購読して配信を続ける
func (h *SanganHandler) StreamZoomEvents(c *gin.Context) {
	id, ch, err := h.manager.Subscribe()
	if err != nil {
		h.serviceUnavailable(c, "ズームセッションが利用できません", err)
		return
	}

	// レスポンスヘッダーを設定
	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	clientGone := c.Request.Context().Done()

	for {
	recv:
		for {
			select {
			case <-clientGone:
				// クライアントが切断された
				h.manager.Unsubscribe(id)
				return

			case st, ok := <-ch:
				if !ok {
					// 位置切替でセッションが作り直された
					break recv
				}
				if err := sse.Encode(c.Writer, sse.Event{
					Event: "state",
					Data:  toZoomState(st),
				}); err != nil {
					h.manager.Unsubscribe(id)
					return
				}
				c.Writer.Flush()
			}
		}

		// 新しいセッションへ再購読する
		// 配信開始後はエラー応答を返せないためストリームを閉じる
		id, ch, err = h.manager.Subscribe()
		if err != nil {
			return
		}
	}
}

// GetCameraStream はMJPEGストリーミングエンドポイントの実装
func (h *SanganHandler) GetCameraStream(c *gin.Context) {
	if h.frames == nil {
		c.JSON(http.StatusServiceUnavailable, generated.ErrorResponse{
			Error:     "stream_unavailable",
			Message:   "映像ストリームが利用できません",
			Timestamp: time.Now(),
		})
		return
	}

	// レスポンスヘッダーを設定
	c.Header("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")

	writer := c.Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	clientGone := c.Request.Context().Done()

	// ストリーミングループ
	for {
		select {
		case <-clientGone:
			// クライアントが切断された
			return

		case frame, ok := <-h.frames:
			if !ok {
				// チャンネルがクローズされた
				return
			}

			// MJPEGフレームを書き込み
			if _, err := writer.Write([]byte("--frame\r\n")); err != nil {
				return
			}
			if _, err := writer.Write([]byte("Content-Type: image/jpeg\r\n\r\n")); err != nil {
				return
			}
			if _, err := writer.Write(frame); err != nil {
				return
			}
			if _, err := writer.Write([]byte("\r\n")); err != nil {
				return
			}

			flusher.Flush()
		}
	}
}

// ヘルパー関数

// serviceUnavailable はズームセッション利用不可の応答を返す
func (h *SanganHandler) serviceUnavailable(c *gin.Context, message string, err error) {
	c.JSON(http.StatusServiceUnavailable, generated.ErrorResponse{
		Error:     "zoom_session_unavailable",
		Message:   message,
		Details:   stringPtr(err.Error()),
		Timestamp: time.Now(),
	})
}

// toZoomState は内部状態を生成されたスキーマに変換する
func toZoomState(st zoom.State) generated.ZoomState {
	return generated.ZoomState{
		SessionId:     st.SessionID,
		Position:      generated.LensPosition(st.Position),
		ActiveLens:    generated.LensKind(st.ActiveLens),
		CurrentUiZoom: st.CurrentUIZoom,
		Reconfiguring: st.Reconfiguring,
		UiRangeMax:    st.UIRangeMax,
		UiRangeMin:    st.UIRangeMin,
	}
}

// toLensInfo はレンズプロファイルを生成されたスキーマに変換する
func toLensInfo(p lens.Profile, active bool) generated.LensInfo {
	return generated.LensInfo{
		Kind:      generated.LensKind(p.Kind),
		Scaler:    p.Scaler,
		NativeMin: p.NativeMin,
		NativeMax: p.NativeMax,
		UiMin:     p.UIMin(),
		UiMax:     p.UIMax(),
		Active:    active,
	}
}

// stringPtr は文字列のポインタを返すヘルパー関数
func stringPtr(s string) *string {
	return &s
}
