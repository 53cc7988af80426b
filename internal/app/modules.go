package app

import (
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/modules/atlas"
	"github.com/specialistvlad/assetgrid/modules/copy"
	"github.com/specialistvlad/assetgrid/modules/font"
	"github.com/specialistvlad/assetgrid/modules/script"
	"github.com/specialistvlad/assetgrid/modules/texture"
)

// coreModules is the definitive list of all processor modules that are
// compiled into the assetgrid binary.
var coreModules = []registry.Module{
	&copy.Module{},
	&texture.Module{},
	&atlas.Module{},
	&font.Module{},
	&script.Module{},
}
