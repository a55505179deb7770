package generic

// Void is an empty value, used where a type parameter needs a type but no data.
type Void struct{}

func NewVoid() Void {
	return Void{}
}
