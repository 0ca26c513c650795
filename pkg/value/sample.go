package value

// Sample returns the built-in demo document loaded by --sample and the
// explorer's "load sample" action.
func Sample() Value {
	return Object(
		Field("user", Object(
			Field("id", Int(123)),
			Field("name", String("Ada Lovelace")),
			Field("active", Bool(true)),
			Field("address", Object(
				Field("city", String("London")),
				Field("zip", String("EC1A")),
			)),
		)),
		Field("items", Array(
			Object(Field("name", String("notebook")), Field("price", Number(9.99))),
			Object(Field("name", String("pencil")), Field("price", Number(1.25))),
		)),
		Field("meta", Null()),
	)
}

// SampleJSON returns Sample as indented JSON text.
func SampleJSON() []byte {
	data, err := Indent(Sample())
	if err != nil {
		panic(err)
	}
	return data
}
