package utils

//panics on err. Used where an error means a programming mistake or an unusable run
func ThrowErr(err error) {
	if err != nil {
		panic(err)
	}
}
