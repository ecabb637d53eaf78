package listing

import "fmt"

const notFoundPage = `<html><head><title>Rightmove</title></head>
<body><h2>We’re sorry, we couldn’t find the property you are looking for.</h2></body></html>`

func listingPage(lon, lat float64, description string) string {
	return fmt.Sprintf(`<html>
<head>
<meta property="og:image" content="https://media.example.com/img1.jpeg">
<meta property="og:image" content="https://media.example.com/img2.jpeg">
</head>
<body>
<div class="nav">Sign in</div>
<h1>Summer Street, Stroud, GL5</h1>
<p>Offers in excess of £300,000</p>
<img alt="Floorplan" src="https://media.example.com/floorplan.gif">
<script>
    window.PAGE_MODEL = {"propertyData":{"id":"118322783","location":{"latitude":%v,"longitude":%v},"text":{"description":%q}}};
</script>
</body>
</html>`, lat, lon, description)
}

const searchResultsPage = `<html><body>
<div class="propertyCard"><a class="propertyCard-link" href="/properties/111#/">One</a></div>
<div class="propertyCard"><a class="propertyCard-link" href="/properties/222#/">Two</a></div>
<div class="propertyCard"><a class="propertyCard-link" href="/properties/111#/">One again</a></div>
<div class="propertyCard"><a class="propertyCard-link" href="">Featured</a></div>
<div class="propertyCard"><a class="propertyCard-link" href="https://www.rightmove.co.uk/properties/333">Three</a></div>
<a class="other-link" href="/properties/999">Not a card</a>
</body></html>`
