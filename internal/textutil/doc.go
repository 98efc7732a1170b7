// Package textutil provides the text clean-up rules shared by every codec
// adapter: tag sanitization for command-line arguments, whitespace
// simplification of tool output, custom parameter tokenization, and file name
// sanitization for generated output paths.
package textutil
