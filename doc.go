package forma

// Package forma provides:
//
// - A path-addressed form state container owning values, touched state and errors (Form)
// - Copy-on-write tree operations and canonical path serialization (fieldpath)
// - A validation adapter normalizing external validators into path+message errors (ValidateValues)
// - A submission lifecycle with an identity-guarded helper bundle (Submit)
// - Field and array projections that keep error/touched bookkeeping aligned (Field/Array)
//
// Design policy:
// - Keep only public APIs in the root package; machinery lives under internal/.
// - Place validator integrations under validator/; heavyweight ones are nested modules.
// - Mutating APIs never fail on unresolved paths; they degrade to no-ops so UI
//   code stays resilient to races between field removal and in-flight edits.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  form := forma.New(
//  	forma.WithInitialValues(values),
//  	forma.WithSchema(schema),
//  	forma.WithSubmitHandler(saveUser),
//  )
//  form.SetValue(fieldpath.MustParse("user.name"), "Ada")
//  if form.Validate(ctx, true) {
//  	form.Submit(ctx)
//  }
