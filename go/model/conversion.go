package model

// ConversionKind distinguishes the supported Conversion shapes.
type ConversionKind int

const (
	// ConversionNone passes a value through unmodified.
	ConversionNone ConversionKind = iota
	// ConversionLinear applies y = mul*x + offset.
	ConversionLinear
)

// Conversion is an identity or affine function applied to parseable numeric
// signal values at emission time. The zero value is ConversionNone.
type Conversion struct {
	Kind   ConversionKind
	Mul    float32
	Offset float32
}

// LinearConversion builds a Linear{mul, offset} conversion.
func LinearConversion(mul, offset float32) Conversion {
	return Conversion{Kind: ConversionLinear, Mul: mul, Offset: offset}
}

// CelsiusToFahrenheit is a convenience constructor matching the canonical
// example conversion used throughout the original twin mapping format.
func CelsiusToFahrenheit() Conversion {
	return LinearConversion(9.0/5.0, 32.0)
}

// FahrenheitToCelsius is the inverse of CelsiusToFahrenheit.
func FahrenheitToCelsius() Conversion {
	return CelsiusToFahrenheit().Inverse()
}

// Apply converts input according to the conversion's kind.
func (c Conversion) Apply(input float32) float32 {
	switch c.Kind {
	case ConversionLinear:
		return input*c.Mul + c.Offset
	default:
		return input
	}
}

// Inverse returns the conversion that undoes c. Note that, as with any
// floating-point operation, this may not be an exact inverse.
func (c Conversion) Inverse() Conversion {
	switch c.Kind {
	case ConversionLinear:
		return Conversion{Kind: ConversionLinear, Mul: 1.0 / c.Mul, Offset: -c.Offset / c.Mul}
	default:
		return c
	}
}
