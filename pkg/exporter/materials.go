package exporter

import (
	"fmt"

	"github.com/robocraft/simusd/pkg/usd"
)

// materialFor returns the path of the UsdPreviewSurface material bound
// to the given texture asset, creating the shader network on first use.
func (e *Exporter) materialFor(texPath string) (string, error) {
	if path, ok := e.materials[texPath]; ok {
		return path, nil
	}

	matPath := fmt.Sprintf("/World/_materials/material_%d", len(e.materials))
	if e.stage.Prim("/World/_materials") == nil {
		if _, err := e.stage.DefinePrim("/World/_materials", "Scope"); err != nil {
			return "", err
		}
	}

	mat, err := e.stage.DefinePrim(matPath, "Material")
	if err != nil {
		return "", err
	}
	mat.ConnectAttribute("outputs:surface", "token", matPath+"/surface.outputs:surface")

	surface, err := e.stage.DefinePrim(matPath+"/surface", "Shader")
	if err != nil {
		return "", err
	}
	surface.UniformAttribute("info:id", "token").Set(usd.Token("UsdPreviewSurface"))
	surface.ConnectAttribute("inputs:diffuseColor", "color3f", matPath+"/texture.outputs:rgb")
	surface.Attribute("inputs:roughness", "float").Set(usd.Float(0.8))
	surface.Attribute("outputs:surface", "token")

	stReader, err := e.stage.DefinePrim(matPath+"/stReader", "Shader")
	if err != nil {
		return "", err
	}
	stReader.UniformAttribute("info:id", "token").Set(usd.Token("UsdPrimvarReader_float2"))
	stReader.Attribute("inputs:varname", "token").Set(usd.Token("st"))
	stReader.Attribute("outputs:result", "float2")

	tex, err := e.stage.DefinePrim(matPath+"/texture", "Shader")
	if err != nil {
		return "", err
	}
	tex.UniformAttribute("info:id", "token").Set(usd.Token("UsdUVTexture"))
	tex.Attribute("inputs:file", "asset").Set(usd.Asset(texPath))
	tex.ConnectAttribute("inputs:st", "float2", matPath+"/stReader.outputs:result")
	tex.Attribute("outputs:rgb", "float3")

	e.materials[texPath] = matPath
	return matPath, nil
}
