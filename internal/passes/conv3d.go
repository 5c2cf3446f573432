package passes

import (
	"github.com/born-ml/irpass/internal/ir"
	"github.com/born-ml/irpass/internal/rewrite"
)

// Conv3d is the canonical 3-D convolution type.
const Conv3d = "F.conv3d"

const conv3dPriority = 10

// aten::_convolution as emitted by the TorchScript tracer. Stride, padding,
// dilation and groups stay operands of the canonical operator.
const conv3dAten = `7767517
18 17
pnnx.Input              input_0     0 1 input
pnnx.Input              input_1     0 1 weight
pnnx.Input              input_2     0 1 bias
pnnx.Input              input_3     0 1 stride
pnnx.Input              input_4     0 1 padding
pnnx.Input              input_5     0 1 dilation
pnnx.Input              input_6     0 1 groups
prim::Constant          op_0        0 1 transposed value=False
prim::Constant          op_1        0 1 output_padding_d value=0
prim::Constant          op_2        0 1 output_padding_h value=0
prim::Constant          op_3        0 1 output_padding_w value=0
prim::ListConstruct     op_4        3 1 output_padding_d output_padding_h output_padding_w output_padding
prim::Constant          op_5        0 1 benchmark value=*
prim::Constant          op_6        0 1 deterministic value=*
prim::Constant          op_7        0 1 cudnn_enabled value=*
prim::Constant          op_8        0 1 allow_tf32 value=*
aten::_convolution      op_9        13 1 input weight bias stride padding dilation transposed output_padding groups benchmark deterministic cudnn_enabled allow_tf32 out
pnnx.Output             output      1 0 out
`

// aten::convolution_onnx keeps ONNX attribute names on a torch operator.
const conv3dConvolutionOnnx = `7767517
6 5
pnnx.Input              input_0     0 1 input
pnnx.Input              input_1     0 1 weight
pnnx.Input              input_2     0 1 bias
prim::Constant          op_0        0 1 transposed value=False
aten::convolution_onnx  op_1        4 1 input weight bias transposed out dilations=%dilations groups=%groups output_padding=(0,0,0) pads=%pads strides=%strides
pnnx.Output             output      1 0 out
`

const conv3dOnnx = `7767517
5 4
pnnx.Input              input_0     0 1 input
pnnx.Input              input_1     0 1 weight
pnnx.Input              input_2     0 1 bias
Conv                    op_0        3 1 input weight bias out kernel_shape=%kernel_shape strides=%strides pads=%pads dilations=%dilations group=%group
pnnx.Output             output      1 0 out
`

const conv3dOnnxNoBias = `7767517
4 3
pnnx.Input              input_0     0 1 input
pnnx.Input              input_1     0 1 weight
Conv                    op_0        2 1 input weight out kernel_shape=%kernel_shape strides=%strides pads=%pads dilations=%dilations group=%group
pnnx.Output             output      1 0 out
`

const conv3dOnnxAutoPad = `7767517
5 4
pnnx.Input              input_0     0 1 input
pnnx.Input              input_1     0 1 weight
pnnx.Input              input_2     0 1 bias
Conv                    op_0        3 1 input weight bias out strides=%strides pads=%pads dilations=%dilations group=%group auto_pad=NOTSET
pnnx.Output             output      1 0 out
`

const conv3dOnnxAutoPadNoBias = `7767517
4 3
pnnx.Input              input_0     0 1 input
pnnx.Input              input_1     0 1 weight
Conv                    op_0        2 1 input weight out strides=%strides pads=%pads dilations=%dilations group=%group auto_pad=NOTSET
pnnx.Output             output      1 0 out
`

// Bias-free encodings still produce a canonical operator that states bias=None.
const conv3dNoBiasReplacement = `7767517
4 3
pnnx.Input              input_0     0 1 input
pnnx.Input              input_1     0 1 weight
F.conv3d                conv        2 1 input weight out bias=None
pnnx.Output             output      1 0 out
`

func conv3dPasses() []rewrite.Pass {
	return []rewrite.Pass{
		{
			Name:     Conv3d,
			Type:     Conv3d,
			Pattern:  conv3dAten,
			Priority: conv3dPriority,
		},
		{
			Name:      Conv3d + "/convolution_onnx",
			Type:      Conv3d,
			Pattern:   conv3dConvolutionOnnx,
			Predicate: acceptConvolutionOnnx,
			Write:     writeConvolutionOnnx,
			Priority:  conv3dPriority,
		},
		{
			Name:      Conv3d + "/onnx",
			Type:      Conv3d,
			Pattern:   conv3dOnnx,
			Predicate: acceptOnnxConv(true),
			Write:     writeOnnxConv,
			Priority:  conv3dPriority,
		},
		{
			Name:        Conv3d + "/onnx_nobias",
			Pattern:     conv3dOnnxNoBias,
			Replacement: conv3dNoBiasReplacement,
			Predicate:   acceptOnnxConv(true),
			Write:       writeOnnxConv,
			Priority:    conv3dPriority,
		},
		{
			Name:      Conv3d + "/onnx_autopad",
			Type:      Conv3d,
			Pattern:   conv3dOnnxAutoPad,
			Predicate: acceptOnnxConv(false),
			Write:     writeOnnxConv,
			Priority:  conv3dPriority,
		},
		{
			Name:        Conv3d + "/onnx_autopad_nobias",
			Pattern:     conv3dOnnxAutoPadNoBias,
			Replacement: conv3dNoBiasReplacement,
			Predicate:   acceptOnnxConv(false),
			Write:       writeOnnxConv,
			Priority:    conv3dPriority,
		},
	}
}

func acceptConvolutionOnnx(c rewrite.Captured) bool {
	return c.IsInts("dilations", spatialRank) &&
		c.IsInts("strides", spatialRank) &&
		symmetricPads(c, "pads", spatialRank)
}

func writeConvolutionOnnx(params ir.Params, c rewrite.Captured) {
	params["stride"] = c["strides"]
	params["padding"] = onesidedPads(c, "pads", spatialRank)
	params["dilation"] = c["dilations"]
	params["groups"] = c["groups"]
}

// acceptOnnxConv checks the ONNX Conv captures: int-lists of spatial rank,
// an int group and symmetric begin/end pads.
func acceptOnnxConv(withKernel bool) rewrite.Predicate {
	return func(c rewrite.Captured) bool {
		if withKernel && !c.IsInts("kernel_shape", spatialRank) {
			return false
		}
		return c.IsInts("strides", spatialRank) &&
			c.IsInts("dilations", spatialRank) &&
			c.IsInt("group") &&
			symmetricPads(c, "pads", spatialRank)
	}
}

func writeOnnxConv(params ir.Params, c rewrite.Captured) {
	params["stride"] = c["strides"]
	params["padding"] = onesidedPads(c, "pads", spatialRank)
	params["dilation"] = c["dilations"]
	params["groups"] = c["group"]
}
