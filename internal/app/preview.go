package app

import (
	"image"
	"image/color"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"github.com/ayusman/drivethru/internal/detector"
	"github.com/ayusman/drivethru/internal/gesture"
)

// handConnections are the landmark pairs joined when drawing a hand skeleton.
var handConnections = [][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP},
	{detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP},
	{detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.IndexMCP, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP},
	{detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.MiddleMCP, detector.RingMCP}, {detector.RingMCP, detector.RingPIP},
	{detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.RingMCP, detector.PinkyMCP}, {detector.Wrist, detector.PinkyMCP},
	{detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP},
	{detector.PinkyDIP, detector.PinkyTip},
}

var (
	boneColor  = color.RGBA{G: 200, A: 255}
	jointColor = color.RGBA{R: 255, A: 255}
	eyeColor   = color.RGBA{B: 255, G: 180, A: 255}
	textColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// publishPreview draws the landmarks and the decoded code on a copy of the
// frame and stores it as JPEG.
func (s *Session) publishPreview(frame *gocv.Mat, obs detector.Observation, code gesture.ObservedCode) {
	img := frame.Clone()
	defer img.Close()

	w, h := img.Cols(), img.Rows()
	px := func(x, y float64) image.Point {
		return image.Pt(int(x*float64(w)), int(y*float64(h)))
	}

	for i := range obs.Hands {
		hand := &obs.Hands[i]
		if !hand.Complete() {
			continue
		}
		for _, c := range handConnections {
			a, b := hand.Points[c[0]], hand.Points[c[1]]
			gocv.Line(&img, px(a.X, a.Y), px(b.X, b.Y), boneColor, 2)
		}
		for _, p := range hand.Points {
			gocv.Circle(&img, px(p.X, p.Y), 4, jointColor, -1)
		}
	}

	if obs.Face != nil {
		for _, eye := range [][detector.EyePoints]detector.Point2D{obs.Face.LeftEye, obs.Face.RightEye} {
			for _, p := range eye {
				gocv.Circle(&img, px(p.X, p.Y), 2, eyeColor, -1)
			}
		}
	}

	if len(code) > 0 {
		label := code.Display(gesture.NotationBinary)
		gocv.PutText(&img, label, image.Pt(12, 32), gocv.FontHersheySimplex, 1.0, textColor, 2)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		log.Debug().Err(err).Msg("encode preview")
		return
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	s.previewMu.Lock()
	s.previewJPG = data
	s.previewMu.Unlock()
}

// Preview returns the latest annotated frame as JPEG, or nil before the first
// processed frame or when previews are disabled.
func (s *Session) Preview() []byte {
	s.previewMu.RLock()
	defer s.previewMu.RUnlock()
	return s.previewJPG
}
