package shader

import _ "embed"

// SkinVertex transforms rigid and skinned geometry. It declares every
// attribute the importer feeds.
//
//go:embed skin.vert
var SkinVertex string

// SkinFragment shades with vertex color, modulated by the diffuse texture
// when one is bound.
//
//go:embed skin.frag
var SkinFragment string

// LineVertex draws untextured overlay lines such as bounding boxes.
//
//go:embed line.vert
var LineVertex string

//go:embed line.frag
var LineFragment string
