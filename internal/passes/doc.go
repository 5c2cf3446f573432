// Package passes holds the normalization passes that rewrite tracer and
// exporter encodings of an operator into its canonical form.
//
// Supported families:
//   - F.conv3d: aten::_convolution, aten::convolution_onnx and ONNX Conv
//     (with or without bias, with kernel_shape or auto_pad=NOTSET)
//
// Every canonical type written here is never the root type of a pass of
// equal or higher priority, so Default's pass set always reaches a fixpoint.
package passes
