// Package matproj provides a typed Go client for the Materials Project REST API.
//
// Every data category (materials, thermo, synthesis, electrodes ...) is served by a
// Rester bound to one API route. All Resters of a Client share a single HTTP session.
//
//	client, _ := matproj.New(ctx, matproj.WithAPIKey(os.Getenv("MP_API_KEY")))
//	defer client.Close()
//
//	doc, _ := client.Materials().GetDocumentByID(ctx, "mp-149")
//	fmt.Println(doc.FormulaPretty)
//
//	stable, _ := client.Thermo().Search(ctx, matproj.ThermoSearch{
//	    Chemsys:  []string{"Fe-O"},
//	    IsStable: matproj.Bool(true),
//	}, matproj.Fields("material_id", "energy_above_hull"))
//
// # Projections and decoding
//
// Fields restricts the returned attributes; the document's FieldsNotRequested lists the
// ones left out. MontyDecode reconstructs "@module"/"@class" tagged values (structures,
// lattices, molecules, timestamps) into Go types; with it off, Encoded fields keep the raw
// maps.
//
// # Errors
//
// Failures unwrap to the sentinels in errors.go (ErrNotFound, ErrValidation ...); check
// them with errors.Is. Answers with an HTTP error status are *APIError.
package matproj
