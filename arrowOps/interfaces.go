package arrowops

type valueArray[T comparable] interface {
	IsNull(i int) bool
	Value(i int) T
	Len() int
}

type valueBuilder[T comparable] interface {
	Append(v T)
	AppendNull()
	Reserve(n int)
}
