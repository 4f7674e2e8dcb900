// Package sample is fixture code for provider tests.
package sample

// Animal is a living thing with legs.
type Animal struct {
	Name    string
	Legs    int
	Friends []Animal
}

// Speaker is implemented by noisy animals.
type Speaker interface {
	Speak() string
}

// Dog is an Animal that speaks.
type Dog struct {
	Animal
	Toys map[string]int
}

// Speak returns a bark.
func (d *Dog) Speak() string { return "woof" }

// NewDog builds a named Dog.
func NewDog(name string) (*Dog, error) {
	return &Dog{Animal: Animal{Name: name, Legs: 4}}, nil
}
