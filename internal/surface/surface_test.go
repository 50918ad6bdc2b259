package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strommix/strommix/internal/scene"
)

func testScene() *scene.Document {
	return &scene.Document{
		Version: scene.FormatVersion,
		Width:   1200,
		Height:  600,
		Objects: []scene.Primitive{
			{
				ID:        "area:Wind",
				Type:      scene.KindArea,
				Placement: scene.At(40, 300),
				Style:     scene.Style{Fill: "#87ceebCC", Opacity: 0.9},
				Flags:     scene.Editable(),
				Shape: &scene.Area{Points: []scene.Point{
					{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50},
				}},
			},
			{
				ID:        "overlay",
				Type:      scene.KindLine,
				Placement: scene.At(40, 200),
				Style:     scene.Style{Stroke: "#ff0000", StrokeWidth: 4, Opacity: 1},
				Flags:     scene.Locked(),
				Shape:     &scene.Line{Points: []scene.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}},
			},
			{
				ID:        "pinned",
				Type:      scene.KindText,
				Placement: scene.At(10, 10),
				Style:     scene.Style{Fill: "#222222", Opacity: 1},
				Flags:     scene.Flags{Selectable: true, Rotatable: true},
				Shape:     &scene.Text{Content: "Wind", FontSize: 14},
			},
		},
	}
}

func TestTranslateMovesOnlyTheTarget(t *testing.T) {
	s := New()
	s.Load(testScene())

	p, err := s.Translate("area:Wind", 25, -10)
	require.NoError(t, err)
	assert.Equal(t, scene.At(65, 290), p)

	snap := s.Snapshot()
	assert.Equal(t, scene.At(65, 290), snap.Find("area:Wind").Placement)
	assert.Equal(t, scene.At(40, 200), snap.Find("overlay").Placement)
	assert.Equal(t, []scene.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50}}, snap.Find("area:Wind").Points())
}

func TestLockedPrimitiveRejectsEveryEdit(t *testing.T) {
	s := New()
	s.Load(testScene())
	before := s.Version()

	_, err := s.Translate("overlay", 1, 1)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = s.Scale("overlay", 2, 2)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = s.Rotate("overlay", 15)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = s.SetPlacement("overlay", scene.At(0, 0))
	assert.ErrorIs(t, err, ErrLocked)

	assert.Equal(t, scene.At(40, 200), s.Snapshot().Find("overlay").Placement)
	assert.Equal(t, before, s.Version())
}

func TestFlagsArePerComponent(t *testing.T) {
	s := New()
	s.Load(testScene())

	_, err := s.Translate("pinned", 5, 5)
	assert.ErrorIs(t, err, ErrLocked)

	p, err := s.Rotate("pinned", 30)
	require.NoError(t, err)
	assert.Equal(t, 30.0, p.R)

	to := p
	to.X = 99
	_, err = s.SetPlacement("pinned", to)
	assert.ErrorIs(t, err, ErrLocked)

	to = p
	to.R = 45
	p, err = s.SetPlacement("pinned", to)
	require.NoError(t, err)
	assert.Equal(t, 45.0, p.R)
}

func TestScaleIsMultiplicative(t *testing.T) {
	s := New()
	s.Load(testScene())

	_, err := s.Scale("area:Wind", 2, 0.5)
	require.NoError(t, err)
	p, err := s.Scale("area:Wind", 1.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, p.SX)
	assert.Equal(t, 0.5, p.SY)

	_, err = s.Scale("area:Wind", 0, 1)
	assert.ErrorIs(t, err, ErrTransform)
}

func TestEditErrors(t *testing.T) {
	s := New()
	_, err := s.Translate("area:Wind", 1, 1)
	assert.ErrorIs(t, err, ErrNoScene)

	s.Load(testScene())
	_, err = s.Translate("missing", 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadAndSnapshotAreCopies(t *testing.T) {
	doc := testScene()
	s := New()
	s.Load(doc)

	_, err := s.Translate("area:Wind", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 40.0, doc.Find("area:Wind").Placement.X)

	snap := s.Snapshot()
	snap.Find("area:Wind").Placement.X = -1
	assert.Equal(t, 50.0, s.Snapshot().Find("area:Wind").Placement.X)

	s.Reset()
	assert.False(t, s.Loaded())
	assert.Nil(t, s.Snapshot())
}

func TestHitTestSkipsUnselectable(t *testing.T) {
	s := New()
	s.Load(testScene())

	assert.Equal(t, "area:Wind", s.HitTest(90, 320))
	assert.Equal(t, "", s.HitTest(90, 200))

	_, err := s.Translate("area:Wind", 500, 0)
	require.NoError(t, err)
	assert.Equal(t, "", s.HitTest(90, 320))
	assert.Equal(t, "area:Wind", s.HitTest(590, 320))
}

func TestRenderAndSelection(t *testing.T) {
	s := New()
	s.Load(testScene())

	cmds := s.Render()
	require.Len(t, cmds, 3)
	assert.Equal(t, "path", cmds[0].Op)
	assert.True(t, cmds[0].Closed)
	assert.Equal(t, "text", cmds[2].Op)

	assert.Equal(t, []string{"area:Wind"}, s.Select([]string{"area:Wind", "overlay", "missing"}))
	b := s.SelectionBounds()
	assert.Equal(t, 40.0, b.X)
	assert.Equal(t, 300.0, b.Y)
	assert.Equal(t, 100.0, b.Width)
	assert.Equal(t, 50.0, b.Height)
}

func TestApplyDispatchesEdits(t *testing.T) {
	s := New()
	s.Load(testScene())

	p, err := s.Apply("area:Wind", Edit{Kind: EditTranslate, DX: 10})
	require.NoError(t, err)
	assert.Equal(t, 50.0, p.X)

	p, err = s.Apply("area:Wind", Edit{Kind: EditScale, FX: 2, FY: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.SX)
	assert.Equal(t, 0.5, p.SY)

	p, err = s.Apply("area:Wind", Edit{Kind: EditRotate, Degrees: 15})
	require.NoError(t, err)
	assert.Equal(t, 15.0, p.R)

	to := scene.At(0, 0)
	p, err = s.Apply("area:Wind", Edit{Kind: EditPlace, Placement: &to})
	require.NoError(t, err)
	assert.Equal(t, to, p)

	_, err = s.Apply("area:Wind", Edit{Kind: EditPlace})
	assert.ErrorIs(t, err, ErrTransform)
	_, err = s.Apply("area:Wind", Edit{Kind: "skew"})
	assert.ErrorIs(t, err, ErrTransform)
	_, err = s.Apply("overlay", Edit{Kind: EditTranslate, DX: 1})
	assert.ErrorIs(t, err, ErrLocked)
}
